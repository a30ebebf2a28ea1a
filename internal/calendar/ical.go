package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"kadence-booker/internal/models"
)

const productID = "-//kadence-booker//EN"

// WriteICS writes every created booking as a VEVENT to an .ics file, so a
// bulk run can be imported into any calendar application afterwards.
func WriteICS(fs afero.Fs, path string, outcomes []models.Outcome) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	count := 0
	for _, outcome := range outcomes {
		if outcome.Status != models.StatusCreated {
			continue
		}
		cal.Children = append(cal.Children, eventFromOutcome(outcome))
		count++
	}
	if count == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// eventFromOutcome builds the VEVENT for one created booking.
func eventFromOutcome(outcome models.Outcome) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, eventUID(outcome))
	ve.Props.SetText(ical.PropSummary, fmt.Sprintf("Desk booking: %s (%s)", outcome.Input.Space, outcome.Input.Building))
	ve.Props.SetText(ical.PropLocation, fmt.Sprintf("%s, %s", outcome.Input.Building, outcome.Input.Floor))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, outcome.Window.StartUTC)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, outcome.Window.EndUTC)
	if outcome.Input.Email != "" {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", outcome.Input.Email))
		ve.Props.Add(p)
	}
	return ve
}

// eventUID prefers the remote booking id so re-exports stay stable.
func eventUID(outcome models.Outcome) string {
	if outcome.BookingID != "" {
		return outcome.BookingID + "@kadence-booker"
	}
	return uuid.New().String()
}
