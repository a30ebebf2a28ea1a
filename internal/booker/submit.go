package booker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"kadence-booker/internal/kadence"
	"kadence-booker/internal/models"
)

// SubmissionError means every payload shape was rejected. It carries the
// last attempt's error; earlier rejections are only logged.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("booking submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// BookingRequest is what the submitter needs to create one booking.
type BookingRequest struct {
	UserID  string
	SpaceID string
	Window  models.TimeWindow
}

// payloadShape is one way of phrasing a booking creation request. Shapes
// are tried in order until one is accepted, so a remote schema change only
// needs a new entry here.
type payloadShape struct {
	name  string
	build func(BookingRequest) any
}

func defaultPayloadShapes() []payloadShape {
	return []payloadShape{
		{
			name: "flat-ids",
			build: func(req BookingRequest) any {
				return map[string]any{
					"userId":    req.UserID,
					"spaceId":   req.SpaceID,
					"date":      req.Window.EffectiveDate,
					"startTime": FormatInstant(req.Window.StartUTC),
					"endTime":   FormatInstant(req.Window.EndUTC),
				}
			},
		},
		{
			name: "relation-refs",
			build: func(req BookingRequest) any {
				return map[string]any{
					"user":      "/users/" + req.UserID,
					"space":     "/spaces/" + req.SpaceID,
					"startTime": FormatInstant(req.Window.StartUTC),
					"endTime":   FormatInstant(req.Window.EndUTC),
				}
			},
		},
	}
}

// Submitter creates bookings on the remote service.
type Submitter struct {
	client *kadence.Client
	logger *slog.Logger
	shapes []payloadShape
}

func NewSubmitter(logger *slog.Logger, client *kadence.Client) *Submitter {
	return &Submitter{client: client, logger: logger, shapes: defaultPayloadShapes()}
}

// Submit tries each payload shape in order and returns the first accepted
// booking.
func (s *Submitter) Submit(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	var lastErr error
	for _, shape := range s.shapes {
		body, err := s.client.Post(ctx, "/bookings", shape.build(req))
		if err != nil {
			s.logger.Debug("Booking payload rejected", "shape", shape.name, "error", err)
			lastErr = err
			continue
		}
		return parseBooking(body), nil
	}
	return nil, &SubmissionError{Err: lastErr}
}

func parseBooking(data []byte) *models.Booking {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return &models.Booking{}
	}
	return &models.Booking{ID: kadence.EntityID(raw)}
}
