package kadence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// decodeCollection tolerates the response shapes the API has been seen to
// use for listings: a plain array, or an object wrapping the array under a
// Hydra member list, "member", "items" or "data".
func decodeCollection(data []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("unrecognized collection shape: %w", err)
	}
	for _, key := range []string{"hydra:member", "member", "items", "data"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("unrecognized %q member shape: %w", key, err)
		}
		return items, nil
	}
	return nil, errors.New("unrecognized collection shape: no member list found")
}

// EntityID extracts the practical identifier of an entity record. In order
// of preference: a direct id field, the trailing segment of an IRI-style
// self reference, an "identifier" field, a "uuid" field. First non-empty
// value wins.
func EntityID(entity map[string]any) string {
	if id := scalarField(entity, "id"); id != "" {
		return id
	}
	if iri := stringField(entity, "@id"); iri != "" {
		if id := trailingSegment(iri); id != "" {
			return id
		}
	}
	if id := scalarField(entity, "identifier"); id != "" {
		return id
	}
	return stringField(entity, "uuid")
}

// trailingSegment returns the final path segment of an IRI, ignoring any
// query string.
func trailingSegment(iri string) string {
	if i := strings.IndexByte(iri, '?'); i >= 0 {
		iri = iri[:i]
	}
	iri = strings.TrimSuffix(iri, "/")
	if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		iri = iri[i+1:]
	}
	return iri
}

// stringField returns the first non-empty string value among the given
// keys, trimmed.
func stringField(entity map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := entity[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// scalarField is like stringField but also accepts numeric identifiers.
func scalarField(entity map[string]any, key string) string {
	switch v := entity[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// nameEqual is the matching rule for every human-entered name: trimmed and
// case-insensitive.
func nameEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
