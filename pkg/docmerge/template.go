package docmerge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	dmxml "github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

// Template is a parsed DOCX template. It is read-only after Prepare and may
// render any number of rows.
type Template struct {
	source     []byte
	docxReader *DocxReader
	parts      []*dmxml.Part
}

// PrepareFile loads and parses a template from a file path.
func PrepareFile(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewDocumentError("open", path, err)
	}
	defer file.Close()

	tmpl, err := Prepare(file)
	if err != nil {
		var docErr *DocumentError
		if errors.As(err, &docErr) && docErr.Path == "" {
			docErr.Path = path
		}
		return nil, err
	}
	return tmpl, nil
}

// Prepare loads and parses a template from an io.Reader.
func Prepare(r io.Reader) (*Template, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, NewDocumentError("read", "", err)
	}
	return PrepareBytes(buf.Bytes())
}

// PrepareBytes parses a template held in memory. source is retained.
func PrepareBytes(source []byte) (*Template, error) {
	docxReader, err := NewDocxReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return nil, NewDocumentError("parse", "", err)
	}

	tmpl := &Template{
		source:     source,
		docxReader: docxReader,
	}

	for _, name := range docxReader.TextParts() {
		data, err := docxReader.GetPart(name)
		if err != nil {
			return nil, NewDocumentError("extract", "", err)
		}
		part, err := dmxml.ParsePart(name, data)
		if err != nil {
			return nil, NewDocumentError("parse", "", fmt.Errorf("%s: %w", name, err))
		}
		tmpl.parts = append(tmpl.parts, part)
	}

	return tmpl, nil
}

// Parts returns the parsed text parts: the main document first, then headers
// and footers.
func (t *Template) Parts() []*dmxml.Part {
	return t.parts
}

// Text returns the paragraph texts of every part, one paragraph per line.
func (t *Template) Text() string {
	var b bytes.Buffer
	for _, part := range t.parts {
		for _, para := range part.Paragraphs() {
			b.WriteString(para.Text())
			b.WriteByte('\n')
		}
	}
	return b.String()
}
