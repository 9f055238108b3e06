package docmerge

import "strings"

// SuggestColumn guesses the CSV column for a placeholder: an exact
// case-insensitive match first, then a column whose name contains the
// placeholder or is contained in it. Whitespace around the placeholder name
// is ignored for matching. It returns "" when nothing matches.
func SuggestColumn(placeholder string, headers []string) string {
	want := strings.ToLower(strings.TrimSpace(CanonicalName(placeholder)))
	if want == "" {
		return ""
	}
	for _, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return h
		}
	}
	for _, h := range headers {
		have := strings.ToLower(strings.TrimSpace(h))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return h
		}
	}
	return ""
}

// SuggestProfile builds a profile mapping each placeholder to its suggested
// column. Placeholders without a suggestion get one blank slot so the
// profile lists them for editing.
func SuggestProfile(placeholders, headers []string) *Profile {
	p := &Profile{Mappings: make(map[string]FieldMapping, len(placeholders))}
	for _, ph := range placeholders {
		p.Mappings[CanonicalName(ph)] = NewFieldMapping(false, SuggestColumn(ph, headers))
	}
	return p
}
