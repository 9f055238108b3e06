package docmerge

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
)

const mainDocumentPart = "word/document.xml"

var headerFooterPart = regexp.MustCompile(`^word/(header|footer)\d+\.xml$`)

// DocxReader indexes the parts of a DOCX package
type DocxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// NewDocxReader creates a new DOCX reader
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	dr := &DocxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts[mainDocumentPart]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing %s", mainDocumentPart)
	}

	return dr, nil
}

// Files returns the package entries in archive order
func (dr *DocxReader) Files() []*zip.File {
	return dr.reader.File
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// TextParts lists the parts that carry paragraph text: the main document,
// then headers and footers, in archive order.
func (dr *DocxReader) TextParts() []string {
	parts := []string{mainDocumentPart}
	for _, file := range dr.reader.File {
		if headerFooterPart.MatchString(file.Name) {
			parts = append(parts, file.Name)
		}
	}
	return parts
}
