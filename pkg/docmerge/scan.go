package docmerge

import (
	"regexp"
	"sort"
)

// placeholderPattern matches "{" + one or more characters other than braces
// + "}".
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Placeholders returns the distinct placeholder names in the template, sorted.
// Paragraph text is reassembled from its runs first, so a placeholder split
// across differently formatted runs is still found.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	for _, part := range t.parts {
		for _, para := range part.Paragraphs() {
			for _, name := range scanText(para.Text()) {
				seen[name] = true
			}
		}
	}
	return sortedKeys(seen)
}

// ScanPlaceholders returns the distinct placeholder names in text, sorted.
func ScanPlaceholders(text string) []string {
	seen := make(map[string]bool)
	for _, name := range scanText(text) {
		seen[name] = true
	}
	return sortedKeys(seen)
}

func scanText(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
