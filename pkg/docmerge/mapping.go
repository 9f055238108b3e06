package docmerge

import (
	"sort"
	"strings"
)

// MaxCandidates is the largest number of candidate columns a FieldMapping
// may list.
const MaxCandidates = 5

// FieldMapping resolves one placeholder from a row.
//
// Candidates are column names in priority order. Count is the number of
// candidate slots that were configured, including slots left blank, and is
// stored explicitly so that a reloaded mapping keeps its blank slots. A zero
// Count means "use len(Candidates)".
//
// With Combine unset the first non-empty candidate wins. With Combine set
// every non-empty candidate is used, joined by a single space.
type FieldMapping struct {
	Candidates []string `yaml:"candidates" json:"candidates"`
	Count      int      `yaml:"count" json:"count"`
	Combine    bool     `yaml:"combine,omitempty" json:"combine,omitempty"`
}

// NewFieldMapping returns a mapping over the given candidates with Count set
// to their number.
func NewFieldMapping(combine bool, candidates ...string) FieldMapping {
	return FieldMapping{
		Candidates: append([]string(nil), candidates...),
		Count:      len(candidates),
		Combine:    combine,
	}
}

// Slots returns the configured candidate slots, padded with "" up to Count.
func (m FieldMapping) Slots() []string {
	n := m.Count
	if n == 0 {
		n = len(m.Candidates)
	}
	slots := make([]string, n)
	copy(slots, m.Candidates)
	return slots
}

// Columns returns the non-blank candidate column names in priority order.
func (m FieldMapping) Columns() []string {
	var cols []string
	for _, c := range m.Slots() {
		if strings.TrimSpace(c) != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate checks the slot bookkeeping of the mapping.
func (m FieldMapping) Validate() error {
	verr := &ValidationError{}
	m.validate("mapping", verr)
	return verr.err()
}

func (m FieldMapping) validate(field string, verr *ValidationError) {
	switch {
	case m.Count < 0:
		verr.add(field, "count cannot be negative")
	case m.Count > MaxCandidates:
		verr.add(field, "count %d exceeds the maximum of %d candidates", m.Count, MaxCandidates)
	case len(m.Candidates) > MaxCandidates:
		verr.add(field, "%d candidates exceed the maximum of %d", len(m.Candidates), MaxCandidates)
	case m.Count != 0 && len(m.Candidates) > m.Count:
		verr.add(field, "%d candidates listed but count is %d", len(m.Candidates), m.Count)
	}
}

// Resolve computes the value of mapping for row. Missing columns count as
// empty; it never fails.
func Resolve(mapping FieldMapping, row Row) string {
	var parts []string
	for _, col := range mapping.Slots() {
		if col == "" {
			continue
		}
		v := row.Value(col)
		if v == "" {
			continue
		}
		if !mapping.Combine {
			return v
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// ResolveAll resolves every mapping for row. Keys are canonical placeholder
// names.
func ResolveAll(mappings map[string]FieldMapping, row Row) map[string]string {
	values := make(map[string]string, len(mappings))
	for name, m := range mappings {
		values[CanonicalName(name)] = Resolve(m, row)
	}
	return values
}

// CanonicalName strips one pair of surrounding braces, so "{NAME}" and
// "NAME" name the same placeholder. Whitespace inside the braces is part of
// the name: "{ NAME }" and "{NAME}" are different placeholders.
func CanonicalName(name string) string {
	if len(name) >= 2 && name[0] == '{' && name[len(name)-1] == '}' {
		name = name[1 : len(name)-1]
	}
	return name
}

// ValidateMappings checks every mapping and reports candidate columns that
// are not among headers.
func ValidateMappings(headers []string, mappings map[string]FieldMapping) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return CanonicalName(names[i]) < CanonicalName(names[j])
	})

	verr := &ValidationError{}
	for _, name := range names {
		m := mappings[name]
		field := "{" + CanonicalName(name) + "}"
		m.validate(field, verr)
		if headers == nil {
			continue
		}
		for _, col := range m.Columns() {
			if !known[col] {
				verr.add(field, "column %q not found in csv", col)
			}
		}
	}
	return verr.err()
}
