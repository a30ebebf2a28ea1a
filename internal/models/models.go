package models

import "time"

// InputRow is one record from the input CSV.
// This is an internal representation, independent of any particular header
// variant; the CSV reader maps aliased column names onto these fields.
type InputRow struct {
	Number    int    // 1-based position of the row in the input file
	Email     string // email address of the user the booking is for
	Building  string // building name, matched case-insensitively
	Floor     string // floor name within the building
	Space     string // space (desk, room, ...) name on the floor
	SpaceType string // optional type filter, e.g. "desk"
	Date      string // booking date, YYYY-MM-DD
	StartTime string // optional local start time, H:mm or HH:mm
	EndTime   string // optional local end time, H:mm or HH:mm
}

// TimeWindow is the absolute UTC range a booking covers, derived from the
// row's date and times interpreted in the building's timezone.
type TimeWindow struct {
	StartUTC      time.Time
	EndUTC        time.Time
	EffectiveDate string // the YYYY-MM-DD the window was computed for
}

// Booking is a booking record created on the remote service.
type Booking struct {
	ID string
}

// OutcomeStatus tags the terminal state of one processed row.
type OutcomeStatus string

const (
	StatusCreated OutcomeStatus = "created"
	StatusDryRun  OutcomeStatus = "dry-run"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome is the result of processing one row. Outcomes are collected in
// completion order; Row always traces back to the original file position.
type Outcome struct {
	Row       int
	Input     InputRow
	Status    OutcomeStatus
	BookingID string // set when Status is StatusCreated
	Window    TimeWindow
	Err       string // set when Status is StatusFailed
}
