package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is one user interaction. The set of events is closed.
type Event interface {
	Type() string
	isEvent()
}

// GeoClick is a click on a map region, already resolved to its key.
type GeoClick struct{ Key string }

// StateSelect picks a geographic key from a dropdown; "" or "all" resets.
type StateSelect struct{ Key string }

// EntitySelect picks an entity from the dropdown.
type EntitySelect struct{ ID string }

func (GeoClick) Type() string     { return "geo_click" }
func (StateSelect) Type() string  { return "state_select" }
func (EntitySelect) Type() string { return "entity_select" }

func (GeoClick) isEvent()     {}
func (StateSelect) isEvent()  {}
func (EntitySelect) isEvent() {}

// RawEvent is the loosely-typed payload received from a client. A map click
// carries either a resolved key or a lon/lat coordinate.
type RawEvent struct {
	Type string   `json:"type"`
	Key  string   `json:"key,omitempty"`
	ID   string   `json:"id,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
}

// Resolver maps a coordinate to a geographic key.
type Resolver interface {
	Resolve(lon, lat float64) (string, bool)
}

// ErrInvalidEvent reports a malformed event payload.
var ErrInvalidEvent = errors.New("invalid selection event")

// ParseEvent validates raw once and returns the typed event. A coordinate
// outside every region yields a GeoClick with an empty key, which State
// treats as a miss.
func ParseEvent(raw RawEvent, r Resolver) (Event, error) {
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "geo_click":
		if raw.Key != "" {
			return GeoClick{Key: raw.Key}, nil
		}
		if raw.Lon == nil || raw.Lat == nil {
			return nil, fmt.Errorf("%w: geo_click needs key or lon/lat", ErrInvalidEvent)
		}
		if r == nil {
			return nil, fmt.Errorf("%w: no boundaries to resolve lon/lat", ErrInvalidEvent)
		}
		name, _ := r.Resolve(*raw.Lon, *raw.Lat)
		return GeoClick{Key: name}, nil
	case "state_select":
		return StateSelect{Key: raw.Key}, nil
	case "entity_select":
		id := raw.ID
		if id == "" {
			id = raw.Key
		}
		return EntitySelect{ID: id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, raw.Type)
	}
}

// DecodeEvent parses a JSON payload into a typed event.
func DecodeEvent(data []byte, r Resolver) (Event, error) {
	var raw RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return ParseEvent(raw, r)
}
