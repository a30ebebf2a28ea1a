package booker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadence-booker/internal/kadence"
	"kadence-booker/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, server *httptest.Server) *kadence.Client {
	t.Helper()
	client, err := kadence.NewClient(context.Background(), testLogger(), kadence.Config{
		BaseURL:     server.URL,
		Credentials: kadence.Credentials{Token: "test-token"},
	})
	require.NoError(t, err)
	return client
}

func testRequest() BookingRequest {
	start := time.Date(2025, 8, 15, 13, 0, 0, 0, time.UTC)
	return BookingRequest{
		UserID:  "u-1",
		SpaceID: "s-1",
		Window: models.TimeWindow{
			StartUTC:      start,
			EndUTC:        start.Add(8 * time.Hour),
			EffectiveDate: "2025-08-15",
		},
	}
}

func TestSubmitterShapeFallback(t *testing.T) {
	t.Run("secondary shape accepted after primary rejection", func(t *testing.T) {
		var bodies []map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			bodies = append(bodies, body)
			if len(bodies) == 1 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"detail":"unknown field userId"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"bk-42"}`))
		}))
		defer server.Close()

		submitter := NewSubmitter(testLogger(), testClient(t, server))
		booking, err := submitter.Submit(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, "bk-42", booking.ID)

		require.Len(t, bodies, 2)
		assert.Contains(t, bodies[0], "userId")
		assert.Equal(t, "/users/u-1", bodies[1]["user"])
		assert.Equal(t, "/spaces/s-1", bodies[1]["space"])
		assert.Equal(t, "2025-08-15T13:00:00.000Z", bodies[1]["startTime"])
	})

	t.Run("primary success never tries the secondary", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"@id":"/bookings/bk-7"}`))
		}))
		defer server.Close()

		submitter := NewSubmitter(testLogger(), testClient(t, server))
		booking, err := submitter.Submit(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, "bk-7", booking.ID)
		assert.Equal(t, 1, calls)
	})

	t.Run("all shapes rejected surfaces the last error", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnprocessableEntity)
			if calls == 1 {
				w.Write([]byte(`{"detail":"first rejection"}`))
			} else {
				w.Write([]byte(`{"detail":"second rejection"}`))
			}
		}))
		defer server.Close()

		submitter := NewSubmitter(testLogger(), testClient(t, server))
		_, err := submitter.Submit(context.Background(), testRequest())
		require.Error(t, err)

		var subErr *SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.Contains(t, err.Error(), "second rejection")
		assert.NotContains(t, err.Error(), "first rejection")
		assert.Equal(t, 2, calls)
	})
}
