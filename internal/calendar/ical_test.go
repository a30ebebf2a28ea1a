package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadence-booker/internal/models"
)

func createdOutcome() models.Outcome {
	start := time.Date(2025, 8, 15, 13, 0, 0, 0, time.UTC)
	return models.Outcome{
		Row:       1,
		Status:    models.StatusCreated,
		BookingID: "bk-9",
		Input: models.InputRow{
			Number:   1,
			Email:    "alice@example.com",
			Building: "HQ",
			Floor:    "3",
			Space:    "Desk 12",
			Date:     "2025-08-15",
		},
		Window: models.TimeWindow{
			StartUTC:      start,
			EndUTC:        start.Add(8 * time.Hour),
			EffectiveDate: "2025-08-15",
		},
	}
}

func TestWriteICS(t *testing.T) {
	t.Run("created bookings become events", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		failed := models.Outcome{Row: 2, Status: models.StatusFailed, Err: "building not found"}

		require.NoError(t, WriteICS(fs, "bookings.ics", []models.Outcome{createdOutcome(), failed}))

		data, err := afero.ReadFile(fs, "bookings.ics")
		require.NoError(t, err)
		content := string(data)

		assert.Contains(t, content, "BEGIN:VCALENDAR")
		assert.Equal(t, 1, strings.Count(content, "BEGIN:VEVENT"), "failed rows must not become events")
		assert.Contains(t, content, "bk-9@kadence-booker")
		assert.Contains(t, content, "Desk booking: Desk 12 (HQ)")
		assert.Contains(t, content, "DTSTART:20250815T130000Z")
		assert.Contains(t, content, "DTEND:20250815T210000Z")
		assert.Contains(t, content, "mailto:alice@example.com")
	})

	t.Run("no created bookings writes nothing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		failed := models.Outcome{Row: 1, Status: models.StatusFailed}

		require.NoError(t, WriteICS(fs, "bookings.ics", []models.Outcome{failed}))

		_, err := fs.Stat("bookings.ics")
		assert.Error(t, err)
	})

	t.Run("dry-run outcomes are not exported", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		dry := createdOutcome()
		dry.Status = models.StatusDryRun
		dry.BookingID = ""

		require.NoError(t, WriteICS(fs, "bookings.ics", []models.Outcome{dry}))

		_, err := fs.Stat("bookings.ics")
		assert.Error(t, err)
	})
}
