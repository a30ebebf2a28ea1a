package booker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadence-booker/internal/models"
)

func validRow() models.InputRow {
	return models.InputRow{
		Number:   1,
		Email:    "alice@example.com",
		Building: "HQ",
		Floor:    "3",
		Space:    "Desk 12",
		Date:     "2025-08-15",
	}
}

func TestValidateRow(t *testing.T) {
	t.Run("complete row passes", func(t *testing.T) {
		assert.NoError(t, validateRow(validRow()))
	})

	t.Run("each required field", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*models.InputRow)
		}{
			{"missing email", func(r *models.InputRow) { r.Email = "" }},
			{"missing building", func(r *models.InputRow) { r.Building = "" }},
			{"missing floor", func(r *models.InputRow) { r.Floor = "" }},
			{"missing space", func(r *models.InputRow) { r.Space = "" }},
			{"missing date", func(r *models.InputRow) { r.Date = "" }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				row := validRow()
				tc.mutate(&row)
				err := validateRow(row)
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
			})
		}
	})

	t.Run("bad date format names the value", func(t *testing.T) {
		row := validRow()
		row.Date = "15/08/2025"
		err := validateRow(row)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, err.Error(), `"15/08/2025"`)
	})

	t.Run("times are not validated here", func(t *testing.T) {
		row := validRow()
		row.StartTime = "whenever"
		assert.NoError(t, validateRow(row))
	})
}
