package booker

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadence-booker/internal/models"
)

func failedRow(n int) models.InputRow {
	return models.InputRow{
		Number:   n,
		Email:    fmt.Sprintf("user%d@example.com", n),
		Building: "HQ",
		Floor:    "3",
		Space:    fmt.Sprintf("Desk %d", n),
		Date:     "2025-08-15",
	}
}

func TestFailureLog(t *testing.T) {
	t.Run("header written once under concurrent first failures", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		log := NewFailureLog(fs, "failures.log")

		var wg sync.WaitGroup
		for i := 1; i <= 12; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				assert.NoError(t, log.Record(failedRow(n), "building not found"))
			}(i)
		}
		wg.Wait()
		require.NoError(t, log.Close())

		data, err := afero.ReadFile(fs, "failures.log")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 13)
		assert.Equal(t, failureLogHeader, lines[0])
		assert.Equal(t, 1, strings.Count(string(data), failureLogHeader))
	})

	t.Run("appending to an existing log keeps one header", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		first := NewFailureLog(fs, "failures.log")
		require.NoError(t, first.Record(failedRow(1), "oops"))
		require.NoError(t, first.Close())

		second := NewFailureLog(fs, "failures.log")
		require.NoError(t, second.Record(failedRow(2), "oops again"))
		require.NoError(t, second.Close())

		data, err := afero.ReadFile(fs, "failures.log")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(data), failureLogHeader))
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		assert.Len(t, lines, 3)
	})

	t.Run("fields are quoted and times defaulted", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		log := NewFailureLog(fs, "failures.log")

		row := failedRow(7)
		row.Space = `Desk "A"`
		require.NoError(t, log.Record(row, `remote said "no"`))
		require.NoError(t, log.Close())

		data, err := afero.ReadFile(fs, "failures.log")
		require.NoError(t, err)
		assert.Contains(t, string(data), `"Desk ""A"""`)
		assert.Contains(t, string(data), `"remote said ""no"""`)
		assert.Contains(t, string(data), `"09:00","17:00"`)
		assert.Contains(t, string(data), `"7"`)
	})

	t.Run("nothing recorded leaves no file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		log := NewFailureLog(fs, "failures.log")
		require.NoError(t, log.Close())

		_, err := fs.Stat("failures.log")
		assert.Error(t, err)
	})
}
