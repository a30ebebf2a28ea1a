package kadence

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
)

// Resolver turns the human-readable identifiers of a CSV row into remote
// entity ids. Every resolution fetches fresh; there is no cross-row cache.
type Resolver struct {
	client *Client
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger, client *Client) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// Building is the projection of a building record the pipeline needs.
type Building struct {
	ID       string
	Name     string
	Timezone string
}

// listStrategy is one request shape for listing a child collection.
// Strategies are tried in order; only when all fail does resolution fail.
type listStrategy struct {
	name  string
	path  string
	query url.Values
}

func floorStrategies(buildingID string) []listStrategy {
	return []listStrategy{
		{name: "query-filter", path: "/floors", query: url.Values{"building": {buildingID}}},
		{name: "nested-path", path: "/buildings/" + buildingID + "/floors"},
	}
}

func spaceStrategies(floorID string) []listStrategy {
	return []listStrategy{
		{name: "query-filter", path: "/spaces", query: url.Values{"floor": {floorID}}},
		{name: "nested-path", path: "/floors/" + floorID + "/spaces"},
	}
}

func (r *Resolver) list(ctx context.Context, strategies []listStrategy) ([]map[string]any, error) {
	var lastErr error
	for _, s := range strategies {
		data, err := r.client.Get(ctx, s.path, s.query)
		if err != nil {
			r.logger.Debug("Listing strategy failed", "strategy", s.name, "path", s.path, "error", err)
			lastErr = err
			continue
		}
		items, err := decodeCollection(data)
		if err != nil {
			r.logger.Debug("Listing strategy returned undecodable body", "strategy", s.name, "error", err)
			lastErr = err
			continue
		}
		return items, nil
	}
	return nil, lastErr
}

// ResolveUser finds the user with the given email address.
func (r *Resolver) ResolveUser(ctx context.Context, email string) (string, error) {
	data, err := r.client.Get(ctx, "/users", url.Values{"email": {strings.TrimSpace(email)}})
	if err != nil {
		return "", err
	}
	users, err := decodeCollection(data)
	if err != nil {
		return "", err
	}
	for _, u := range users {
		if !nameEqual(stringField(u, "email", "emailAddress"), email) {
			continue
		}
		if id := EntityID(u); id != "" {
			return id, nil
		}
	}
	return "", &NotFoundError{Kind: "user", Name: strings.TrimSpace(email)}
}

// ResolveBuilding finds the building with the given name.
func (r *Resolver) ResolveBuilding(ctx context.Context, name string) (*Building, error) {
	data, err := r.client.Get(ctx, "/buildings", nil)
	if err != nil {
		return nil, err
	}
	buildings, err := decodeCollection(data)
	if err != nil {
		return nil, err
	}
	for _, b := range buildings {
		if !nameEqual(stringField(b, "name"), name) {
			continue
		}
		if id := EntityID(b); id != "" {
			return &Building{
				ID:       id,
				Name:     stringField(b, "name"),
				Timezone: buildingTimezoneField(b),
			}, nil
		}
	}
	return nil, &NotFoundError{Kind: "building", Name: strings.TrimSpace(name)}
}

// ResolveFloor finds the floor with the given name inside a building.
func (r *Resolver) ResolveFloor(ctx context.Context, buildingID, name string) (string, error) {
	floors, err := r.list(ctx, floorStrategies(buildingID))
	if err != nil {
		return "", &ResolutionError{Kind: "floors", ParentID: buildingID, Err: err}
	}
	for _, f := range floors {
		if !nameEqual(stringField(f, "name"), name) {
			continue
		}
		if id := EntityID(f); id != "" {
			return id, nil
		}
	}
	return "", &NotFoundError{Kind: "floor", Name: strings.TrimSpace(name)}
}

// ResolveSpace finds the space with the given name on a floor. The name is
// matched against both the name and display-name fields. A non-empty
// spaceType restricts matches to spaces of that type; a space without any
// type field always satisfies the filter (the schema does not carry a type
// on every deployment, so absence is treated as a match).
func (r *Resolver) ResolveSpace(ctx context.Context, floorID, name, spaceType string) (string, error) {
	spaces, err := r.list(ctx, spaceStrategies(floorID))
	if err != nil {
		return "", &ResolutionError{Kind: "spaces", ParentID: floorID, Err: err}
	}
	for _, sp := range spaces {
		if !nameEqual(stringField(sp, "name"), name) &&
			!nameEqual(stringField(sp, "displayName", "display_name"), name) {
			continue
		}
		if spaceType != "" {
			if t := stringField(sp, "type", "spaceType", "category"); t != "" && !nameEqual(t, spaceType) {
				continue
			}
		}
		if id := EntityID(sp); id != "" {
			return id, nil
		}
	}
	return "", &NotFoundError{Kind: "space", Name: strings.TrimSpace(name)}
}

// BuildingTimezone returns the IANA zone for a building. When the listing
// carried no zone, or only the generic "UTC", one follow-up fetch of the
// building detail is attempted before settling for UTC.
func (r *Resolver) BuildingTimezone(ctx context.Context, b *Building) string {
	tz := b.Timezone
	if tz == "" || tz == "UTC" {
		if data, err := r.client.Get(ctx, "/buildings/"+b.ID, nil); err == nil {
			var detail map[string]any
			if json.Unmarshal(data, &detail) == nil {
				if v := buildingTimezoneField(detail); v != "" && v != "UTC" {
					tz = v
				}
			}
		} else {
			r.logger.Debug("Building detail fetch failed, keeping listed timezone", "building", b.ID, "error", err)
		}
	}
	if tz == "" {
		tz = "UTC"
	}
	return tz
}

func buildingTimezoneField(b map[string]any) string {
	return stringField(b, "timezone", "timeZone", "tz", "ianaTimezone")
}
