// Package selection holds the dashboard's current geographic and entity
// selection and the month range derived from it.
package selection

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
)

// National is the sentinel entity used when nothing else can be selected.
const National = "National"

// All selects every geographic key.
const All = "all"

// Apply errors. A miss is also reported through Outcome.
var (
	ErrUnknownEvent  = errors.New("unknown selection event")
	ErrSelectionMiss = errors.New("selection not found")
)

// Data is the read-only view of the dataset the selection needs.
// *dataset.Store implements it.
type Data interface {
	Entities(geo string) []string
	HasGeo(key string) bool
	Lookup(entity string) (dataset.Record, bool)
	MonthIndex(t time.Time) int
}

// MonthRange is a pair of month-bucket indexes relative to the dataset's
// earliest start. Valid is false when no record backs the selection.
type MonthRange struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Valid bool `json:"valid"`
}

// Snapshot is an immutable copy of a State.
type Snapshot struct {
	Geo     string     `json:"geo"`
	Entity  string     `json:"entity"`
	Options []string   `json:"options"`
	Range   MonthRange `json:"range"`
}

// Outcome describes the effect of one event.
type Outcome struct {
	Changed bool
	Miss    bool
}

// State is not safe for concurrent use; callers serialise events.
type State struct {
	data    Data
	geo     string
	entity  string
	options []string
	rng     MonthRange
}

// New returns the default selection: all geographic keys, entity National
// when present, else the first entity.
func New(data Data) *State {
	s := &State{data: data}
	s.options = data.Entities("")
	s.entity = National
	if len(s.options) > 0 && !slices.Contains(s.options, National) {
		s.entity = s.options[0]
	}
	s.rng = s.rangeFor(s.entity)
	return s
}

// Apply processes one event. A miss is not an error: the state falls back
// and Outcome.Miss is set. Only an unrecognised event returns an error.
func (s *State) Apply(ev Event) (Outcome, error) {
	before := s.Snapshot()
	var miss bool
	switch e := ev.(type) {
	case GeoClick:
		key := strings.TrimSpace(e.Key)
		if key == "" || !s.data.HasGeo(key) {
			// The previous valid selection stays on screen.
			return Outcome{Miss: true}, nil
		}
		s.setGeo(key)
	case StateSelect:
		key := strings.TrimSpace(e.Key)
		if strings.EqualFold(key, All) {
			key = ""
		}
		s.setGeo(key)
		miss = key != "" && len(s.options) == 0
	case EntitySelect:
		miss = s.setEntity(strings.TrimSpace(e.ID)) != nil
	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	return Outcome{Changed: !equal(before, s.Snapshot()), Miss: miss}, nil
}

func (s *State) setGeo(key string) {
	prev := s.entity
	s.geo = key
	s.options = s.data.Entities(key)
	switch {
	case slices.Contains(s.options, prev):
		s.entity = prev
	case len(s.options) > 0:
		s.entity = s.options[0]
	default:
		s.entity = National
	}
	s.rng = s.rangeFor(s.entity)
}

// setEntity selects id. An id absent from the dataset leaves the range
// empty; a known id outside the current options reverts to National.
func (s *State) setEntity(id string) error {
	if _, err := s.record(id); err != nil {
		s.entity = National
		s.rng = MonthRange{}
		return err
	}
	if !slices.Contains(s.options, id) {
		s.entity = National
		s.rng = s.rangeFor(National)
		return fmt.Errorf("%w: entity %q not offered for %q", ErrSelectionMiss, id, s.geo)
	}
	s.entity = id
	s.rng = s.rangeFor(id)
	return nil
}

func (s *State) record(id string) (dataset.Record, error) {
	rec, ok := s.data.Lookup(id)
	if !ok {
		return dataset.Record{}, fmt.Errorf("%w: entity %q", ErrSelectionMiss, id)
	}
	return rec, nil
}

func (s *State) rangeFor(id string) MonthRange {
	rec, err := s.record(id)
	if err != nil {
		return MonthRange{}
	}
	return MonthRange{
		Start: s.data.MonthIndex(rec.Start),
		End:   s.data.MonthIndex(rec.End),
		Valid: true,
	}
}

// Geo returns the selected geographic key; empty means all.
func (s *State) Geo() string { return s.geo }

// Entity returns the selected entity.
func (s *State) Entity() string { return s.entity }

// Range returns the month-bucket pair of the selected entity.
func (s *State) Range() (start, end int, ok bool) {
	return s.rng.Start, s.rng.End, s.rng.Valid
}

// Snapshot copies the state for rendering.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Geo:     s.geo,
		Entity:  s.entity,
		Options: append([]string{}, s.options...),
		Range:   s.rng,
	}
}

func equal(a, b Snapshot) bool {
	return a.Geo == b.Geo && a.Entity == b.Entity && a.Range == b.Range && slices.Equal(a.Options, b.Options)
}
