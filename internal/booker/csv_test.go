package booker

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, fs afero.Fs, content string) string {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "input.csv", []byte(content), 0o644))
	return "input.csv"
}

func TestReadRows(t *testing.T) {
	t.Run("current header variant", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "Email Address,Building Name,Floor Name,Space Name,Space Type,Date,Start Time,End Time\n"+
			"alice@example.com,HQ,3,Desk 12,desk,2025-08-15,09:00,17:00\n"+
			"bob@example.com,HQ,3,Desk 13,,2025-08-15,,\n")

		rows, err := ReadRows(fs, path, ReadOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 1, rows[0].Number)
		assert.Equal(t, "alice@example.com", rows[0].Email)
		assert.Equal(t, "desk", rows[0].SpaceType)
		assert.Equal(t, "09:00", rows[0].StartTime)

		assert.Equal(t, 2, rows[1].Number)
		assert.Empty(t, rows[1].SpaceType)
		assert.Empty(t, rows[1].StartTime)
	})

	t.Run("legacy desk header variant", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "EMAIL,BUILDING,FLOOR,DESK NAME,DATE\n"+
			"alice@example.com,HQ,3,Desk 12,2025-08-15\n")

		rows, err := ReadRows(fs, path, ReadOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Desk 12", rows[0].Space)
	})

	t.Run("values are trimmed", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "email,building name,floor name,space name,date\n"+
			"  alice@example.com , HQ ,3,  Desk 12 ,2025-08-15\n")

		rows, err := ReadRows(fs, path, ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", rows[0].Email)
		assert.Equal(t, "HQ", rows[0].Building)
		assert.Equal(t, "Desk 12", rows[0].Space)
	})

	t.Run("date override replaces row dates and relaxes the column", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "email,building name,floor name,space name\n"+
			"alice@example.com,HQ,3,Desk 12\n")

		rows, err := ReadRows(fs, path, ReadOptions{DateOverride: "2025-09-01"})
		require.NoError(t, err)
		assert.Equal(t, "2025-09-01", rows[0].Date)
	})

	t.Run("missing required columns are reported", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "email,floor name,space name,date\nalice@example.com,3,Desk 12,2025-08-15\n")

		_, err := ReadRows(fs, path, ReadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "building")
	})

	t.Run("empty file yields no rows", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "")

		rows, err := ReadRows(fs, path, ReadOptions{})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := ReadRows(fs, "nope.csv", ReadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.csv")
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := writeCSV(t, fs, "email,building name,floor name,space name,date\n"+
			"alice@example.com,HQ,3,Desk 12,2025-08-15\n"+
			",,,,\n"+
			"bob@example.com,HQ,3,Desk 13,2025-08-15\n")

		rows, err := ReadRows(fs, path, ReadOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[1].Number)
	})
}
