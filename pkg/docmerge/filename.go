package docmerge

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultStem names documents whose row has no value for either
	// filename field.
	DefaultStem = "document"

	// MaxSlugLength caps the slug part of a generated file name, in runes.
	MaxSlugLength = 120

	// MaxNameBytes caps a whole generated file name, extension included.
	// Most file systems reject names longer than 255 bytes.
	MaxNameBytes = 255

	docxExt = ".docx"
)

// FilenameSpec describes how output file names are built from a row.
type FilenameSpec struct {
	Field1 string `yaml:"field1,omitempty" json:"field1,omitempty"`
	Field2 string `yaml:"field2,omitempty" json:"field2,omitempty"`
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// NameSet tracks the file names already taken by a run. Names compare
// case-insensitively. The zero value is ready to use.
type NameSet struct {
	names map[string]struct{}
}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add marks name as taken.
func (s *NameSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[strings.ToLower(name)] = struct{}{}
}

// Contains reports whether name is taken.
func (s *NameSet) Contains(name string) bool {
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// Len returns the number of taken names.
func (s *NameSet) Len() int {
	return len(s.names)
}

// BuildName returns a unique ".docx" file name for row and records it in
// used. On collision "_1", "_2", ... is appended before the extension. Names
// longer than MaxNameBytes lose the end of their slug first.
func BuildName(spec FilenameSpec, row Row, used *NameSet) string {
	var stems []string
	for _, field := range []string{spec.Field1, spec.Field2} {
		if field == "" {
			continue
		}
		if v := row.Value(field); v != "" {
			stems = append(stems, v)
		}
	}
	stem := DefaultStem
	if len(stems) > 0 {
		stem = strings.Join(stems, "_")
	}

	prefix, slug, suffix := sanitizeAffix(spec.Prefix), Slugify(stem), sanitizeAffix(spec.Suffix)
	name := fitName(prefix, slug, suffix, docxExt)
	for n := 1; used.Contains(name); n++ {
		name = fitName(prefix, slug, suffix, "_"+strconv.Itoa(n)+docxExt)
	}
	used.Add(name)
	return name
}

// fitName joins the parts of a file name, shortening the slug so the result
// stays within MaxNameBytes. The affixes are cut only when the slug alone
// cannot make room.
func fitName(prefix, slug, suffix, tail string) string {
	budget := MaxNameBytes - len(tail)
	over := len(prefix) + len(slug) + len(suffix) - budget
	if over <= 0 {
		return prefix + slug + suffix + tail
	}
	if over < len(slug) {
		return prefix + truncateBytes(slug, len(slug)-over) + suffix + tail
	}
	return truncateBytes(prefix+suffix, budget) + tail
}

// truncateBytes returns the longest prefix of s that is at most n bytes and
// ends on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Slugify turns s into a file-name-safe token: accents are folded, runs of
// whitespace become a single "_", and everything except letters, digits, "_"
// and "-" is dropped. The result is at most MaxSlugLength runes and never
// empty.
func Slugify(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err == nil {
		s = folded
	}

	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == MaxSlugLength {
			break
		}
		switch {
		case r == ' ':
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		default:
			continue
		}
		count++
	}

	if b.Len() == 0 {
		return DefaultStem
	}
	return b.String()
}

// sanitizeAffix drops characters that are not allowed in file names on
// common file systems.
func sanitizeAffix(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, s)
}
