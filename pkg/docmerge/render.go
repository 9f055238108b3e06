package docmerge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	dmxml "github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

// substitution is one placeholder occurrence in a paragraph's text, in byte
// offsets of the concatenated run text.
type substitution struct {
	start, end int
	value      string
}

// Render returns a new DOCX with every placeholder whose name is a key of
// values replaced by its value. Placeholders without a value are left as
// they are. The template itself is not modified.
func (t *Template) Render(values map[string]string) ([]byte, error) {
	rewritten := make(map[string][]byte)
	replaced := 0
	for _, part := range t.parts {
		edits, n := partEdits(part, values)
		if len(edits) == 0 {
			continue
		}
		rewritten[part.Name] = part.Rewrite(edits)
		replaced += n
	}

	out, err := t.writePackage(rewritten)
	if err != nil {
		return nil, NewDocumentError("render", "", err)
	}

	GetLogger().Debug("document rendered",
		zap.Int("placeholders", replaced),
		zap.Int("parts", len(rewritten)))
	return out, nil
}

// RenderRow resolves every mapping against row and renders the result.
func (t *Template) RenderRow(row Row, mappings map[string]FieldMapping) ([]byte, error) {
	return t.Render(ResolveAll(mappings, row))
}

// partEdits computes the node edits for one part and the number of
// placeholders they replace.
func partEdits(part *dmxml.Part, values map[string]string) ([]dmxml.Edit, int) {
	var (
		edits    []dmxml.Edit
		replaced int
	)
	for _, para := range part.Paragraphs() {
		text := para.Text()
		if !strings.Contains(text, "{") {
			continue
		}
		subs := findSubstitutions(text, values)
		if len(subs) == 0 {
			continue
		}
		replaced += len(subs)
		edits = append(edits, paragraphEdits(para, subs)...)
	}
	return edits, replaced
}

func findSubstitutions(text string, values map[string]string) []substitution {
	var subs []substitution
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		value, ok := values[text[m[2]:m[3]]]
		if !ok {
			continue
		}
		subs = append(subs, substitution{start: m[0], end: m[1], value: value})
	}
	return subs
}

// paragraphEdits maps substitutions back onto the runs of para. The value
// goes into the node holding the opening brace; the rest of the placeholder
// is cut from the nodes that follow.
func paragraphEdits(para *dmxml.Paragraph, subs []substitution) []dmxml.Edit {
	var edits []dmxml.Edit
	offset := 0
	for _, node := range para.Nodes {
		a, b := offset, offset+len(node.Text)
		offset = b
		if a == b {
			continue
		}

		var (
			out     strings.Builder
			pos     = a
			changed bool
		)
		for _, s := range subs {
			if s.end <= a || s.start >= b {
				continue
			}
			changed = true
			if s.start > pos {
				out.WriteString(node.Text[pos-a : s.start-a])
			}
			if s.start >= a {
				out.WriteString(s.value)
			}
			pos = min(s.end, b)
		}
		if !changed {
			continue
		}
		out.WriteString(node.Text[pos-a:])
		edits = append(edits, dmxml.Edit{Node: node, Text: out.String()})
	}
	return edits
}

// writePackage writes the template package with the given parts replaced.
// Every other entry is copied without recompression.
func (t *Template) writePackage(rewritten map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, file := range t.docxReader.Files() {
		data, ok := rewritten[file.Name]
		if !ok {
			if err := w.Copy(file); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return buf.Bytes(), nil
}
