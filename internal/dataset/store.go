// Package dataset loads the survey table into an immutable in-memory store.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lukefredrickson/nfact-dashboard/internal/source"
)

// Options controls how the input table is located and interpreted.
type Options struct {
	// Path is a local path, http(s) URL or s3:// location.
	Path string
	// Sheet selects an XLSX sheet; empty means the first sheet.
	Sheet string
	// Column roles. Entity and geo may name the same column (state-level
	// tables), as may start and end (daily case counts).
	EntityColumn string
	GeoColumn    string
	StartColumn  string
	EndColumn    string
	// Delimiter for CSV. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	Source    source.Options
}

// DefaultOptions returns the column roles of the food-insecurity survey table.
func DefaultOptions() Options {
	return Options{
		EntityColumn: "study_site",
		GeoColumn:    "state",
		StartColumn:  "start_date",
		EndColumn:    "end_date",
	}
}

func (o Options) delimiter() rune {
	if o.Delimiter != 0 {
		return o.Delimiter
	}
	if source.Ext(o.Path) == ".tsv" {
		return '\t'
	}
	return ','
}

// Load errors, wrapped in a LoadError with the offending row.
var (
	ErrNoHeader      = errors.New("missing header row")
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyEntity   = errors.New("empty entity identifier")
	ErrBadDate       = errors.New("unparseable date")
	ErrInverted      = errors.New("end date before start date")
)

// Record is one row of the source table.
type Record struct {
	Row     int                `json:"row"`
	Entity  string             `json:"entity"`
	Geo     string             `json:"geo"`
	Start   time.Time          `json:"start"`
	End     time.Time          `json:"end"`
	Metrics map[string]float64 `json:"metrics"`
	Fields  map[string]string  `json:"fields,omitempty"`
}

// Metric returns the named numeric value of the record.
func (r Record) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// Store holds the loaded records. It is read-only after construction and
// safe to share between goroutines.
type Store struct {
	path     string
	records  []Record
	byEntity map[string]int
	entities []string
	byGeo    map[string][]string
	geoKeys  []string
	minStart time.Time
	maxEnd   time.Time
	months   int
}

// Load reads the table at opt.Path. Every failure is a *LoadError.
func Load(ctx context.Context, opt Options) (*Store, error) {
	ext := source.Ext(opt.Path)
	tr, ok := readerFor(ext)
	if !ok {
		return nil, &LoadError{Path: opt.Path, Err: fmt.Errorf("%w: %q", ErrUnsupported, ext)}
	}
	rc, err := source.Open(ctx, opt.Path, opt.Source)
	if err != nil {
		return nil, &LoadError{Path: opt.Path, Err: err}
	}
	defer rc.Close()
	rows, err := tr.Read(rc, opt)
	if err != nil {
		return nil, &LoadError{Path: opt.Path, Err: err}
	}
	return FromRows(opt.Path, rows, opt)
}

// FromRows builds a store from header-first rows.
func FromRows(name string, rows [][]string, opt Options) (*Store, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &LoadError{Path: name, Err: ErrNoHeader}
	}
	header := make([]string, len(rows[0]))
	index := map[string]int{}
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[strings.ToLower(header[i])]; !dup {
			index[strings.ToLower(header[i])] = i
		}
	}
	col := func(role string) (int, error) {
		i, ok := index[strings.ToLower(strings.TrimSpace(role))]
		if !ok {
			return 0, &LoadError{Path: name, Err: fmt.Errorf("%w %q", ErrMissingColumn, role)}
		}
		return i, nil
	}
	entityIdx, err := col(opt.EntityColumn)
	if err != nil {
		return nil, err
	}
	geoIdx, err := col(opt.GeoColumn)
	if err != nil {
		return nil, err
	}
	startIdx, err := col(opt.StartColumn)
	if err != nil {
		return nil, err
	}
	endIdx, err := col(opt.EndColumn)
	if err != nil {
		return nil, err
	}
	roles := map[int]bool{entityIdx: true, geoIdx: true, startIdx: true, endIdx: true}

	s := &Store{
		path:     name,
		byEntity: map[string]int{},
		byGeo:    map[string][]string{},
	}
	seenInGeo := map[string]map[string]bool{}
	for n, raw := range rows[1:] {
		rowNum := n + 1
		if blank(raw) {
			continue
		}
		rec := make([]string, len(header))
		copy(rec, raw)

		entity := strings.TrimSpace(rec[entityIdx])
		if entity == "" {
			return nil, &LoadError{Path: name, Row: rowNum, Err: ErrEmptyEntity}
		}
		start, ok := parseTimeMaybe(rec[startIdx])
		if !ok {
			return nil, &LoadError{Path: name, Row: rowNum, Err: fmt.Errorf("%w in %s: %q", ErrBadDate, header[startIdx], rec[startIdx])}
		}
		end, ok := parseTimeMaybe(rec[endIdx])
		if !ok {
			return nil, &LoadError{Path: name, Row: rowNum, Err: fmt.Errorf("%w in %s: %q", ErrBadDate, header[endIdx], rec[endIdx])}
		}
		if end.Before(start) {
			return nil, &LoadError{Path: name, Row: rowNum, Err: ErrInverted}
		}
		r := Record{
			Row:     rowNum,
			Entity:  entity,
			Geo:     strings.TrimSpace(rec[geoIdx]),
			Start:   start,
			End:     end,
			Metrics: map[string]float64{},
		}
		for j, v := range rec {
			if roles[j] || header[j] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" || isNA(v) {
				continue
			}
			if x, ok := parseNumeric(v); ok {
				r.Metrics[header[j]] = x
				continue
			}
			if r.Fields == nil {
				r.Fields = map[string]string{}
			}
			r.Fields[header[j]] = v
		}

		if _, ok := s.byEntity[entity]; !ok {
			s.byEntity[entity] = len(s.records)
			s.entities = append(s.entities, entity)
		}
		if r.Geo != "" {
			if seenInGeo[r.Geo] == nil {
				seenInGeo[r.Geo] = map[string]bool{}
				s.geoKeys = append(s.geoKeys, r.Geo)
			}
			if !seenInGeo[r.Geo][entity] {
				seenInGeo[r.Geo][entity] = true
				s.byGeo[r.Geo] = append(s.byGeo[r.Geo], entity)
			}
		}
		if len(s.records) == 0 || start.Before(s.minStart) {
			s.minStart = start
		}
		if len(s.records) == 0 || end.After(s.maxEnd) {
			s.maxEnd = end
		}
		s.records = append(s.records, r)
	}
	sort.Strings(s.geoKeys)
	if len(s.records) > 0 {
		s.months = s.MonthIndex(s.maxEnd) + 1
	}
	return s, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Path returns the location the store was loaded from.
func (s *Store) Path() string { return s.path }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns the records in source order. Callers must not mutate them.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Entities returns the distinct entity identifiers for geo in source order.
// An empty geo returns every entity.
func (s *Store) Entities(geo string) []string {
	if geo == "" {
		return append([]string{}, s.entities...)
	}
	return append([]string{}, s.byGeo[geo]...)
}

// GeoKeys returns the distinct non-empty geographic keys, sorted.
func (s *Store) GeoKeys() []string { return append([]string{}, s.geoKeys...) }

// HasGeo reports whether any record carries the geographic key.
func (s *Store) HasGeo(key string) bool {
	_, ok := s.byGeo[key]
	return ok
}

// Lookup returns the first record for entity.
func (s *Store) Lookup(entity string) (Record, bool) {
	i, ok := s.byEntity[entity]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

// MinStart is the earliest start timestamp across all records.
func (s *Store) MinStart() time.Time { return s.minStart }

// MaxEnd is the latest end timestamp across all records.
func (s *Store) MaxEnd() time.Time { return s.maxEnd }

// Months is the number of calendar-month buckets from MinStart to MaxEnd inclusive.
func (s *Store) Months() int { return s.months }

// MonthIndex counts whole calendar months between MinStart and t. The day of
// month is ignored, so every timestamp falls into the bucket of its month.
func (s *Store) MonthIndex(t time.Time) int {
	if len(s.records) == 0 {
		return 0
	}
	return (t.Year()-s.minStart.Year())*12 + int(t.Month()) - int(s.minStart.Month())
}

// MonthLabels returns one label per month bucket, e.g. "March,\n2020".
func (s *Store) MonthLabels() []string {
	labels := make([]string, 0, s.months)
	first := time.Date(s.minStart.Year(), s.minStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < s.months; i++ {
		labels = append(labels, first.AddDate(0, i, 0).Format("January,\n2006"))
	}
	return labels
}

// Unmatched returns the geographic keys for which has reports false. Such
// records still load; they render without map highlighting.
func (s *Store) Unmatched(has func(string) bool) []string {
	var out []string
	for _, k := range s.geoKeys {
		if !has(k) {
			out = append(out, k)
		}
	}
	return out
}
