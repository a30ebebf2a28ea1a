package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"kadence-booker/internal/models"
)

const defaultCalDAVEndpoint = "https://caldav.icloud.com/"

// basicAuthTransport handles adding Basic Auth and custom headers to
// requests.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "kadence-booker/1.0")
	return t.Transport.RoundTrip(req)
}

// PublishConfig describes the CalDAV calendar created bookings are pushed
// to.
type PublishConfig struct {
	Endpoint string // CalDAV server URL; defaults to the iCloud endpoint
	Username string
	Password string
	Calendar string // display name of the target calendar
}

// Publisher pushes created bookings into a CalDAV calendar so they show up
// next to the user's other events. Publishing is best-effort: the booking
// already exists remotely by the time this runs.
type Publisher struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarURL  string
}

// NewPublisher connects to the CalDAV server and locates the configured
// calendar.
func NewPublisher(ctx context.Context, logger *slog.Logger, cfg PublishConfig) (*Publisher, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultCalDAVEndpoint
	}
	httpClient := &http.Client{Transport: &basicAuthTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	p := &Publisher{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", cfg.Calendar)
	calendarURL, err := p.findCalendar(ctx, cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar %q: %w", cfg.Calendar, err)
	}
	p.calendarURL = calendarURL
	logger.Info("Found CalDAV calendar", "url", calendarURL)

	return p, nil
}

// Publish writes one created booking as an event in the calendar.
func (p *Publisher) Publish(ctx context.Context, outcome models.Outcome) error {
	vevent := eventFromOutcome(outcome)
	uid, _ := vevent.Props.Text(ical.PropUID)
	p.logger.Debug("Publishing booking to calendar", "row", outcome.Row, "uid", uid)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, vevent)

	// The event path must be relative to the endpoint for the webdav client.
	eventPath := path.Join(strings.TrimPrefix(p.calendarURL, p.endpoint), fmt.Sprintf("%s.ics", uid))

	writer, err := p.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// findCalendar discovers the user's calendars and returns the URL for the
// one with the matching name.
func (p *Publisher) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := p.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}
	homeSetPath, err := p.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	calendars, err := p.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return strings.TrimSuffix(p.endpoint, "/") + cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name %q", name)
}
