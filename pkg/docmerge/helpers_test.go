package docmerge

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dmxml "github.com/benjaminschreck/go-docmerge/pkg/docmerge/xml"
)

const (
	wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

	stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="Normal"/></w:styles>`
)

// run renders a plain text run.
func run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// boldRun renders a bold text run.
func boldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// para renders a paragraph holding the given runs.
func para(runs ...string) string {
	return `<w:p>` + strings.Join(runs, "") + `</w:p>`
}

func documentXML(body ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + wordNS + `><w:body>` + strings.Join(body, "") + `<w:sectPr/></w:body></w:document>`
}

func headerXML(body ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr ` + wordNS + `>` + strings.Join(body, "") + `</w:hdr>`
}

func footerXML(body ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr ` + wordNS + `>` + strings.Join(body, "") + `</w:ftr>`
}

// createDOCXBytes builds a minimal DOCX package. Extra parts are added after
// word/document.xml in name order.
func createDOCXBytes(t testing.TB, document string, extra map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	write := func(name, content string) {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`)
	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)
	write("word/document.xml", document)

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, extra[name])
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

// certificateDOCX is a template with a split placeholder in the body, a
// table, a header and a footer.
func certificateDOCX(t testing.TB) []byte {
	t.Helper()
	doc := documentXML(
		para(boldRun("Dear {NA"), run("ME}")),
		`<w:tbl><w:tr><w:tc>`+para(run("Amount: {AMO"), boldRun("UNT"), run("}"))+`</w:tc></w:tr></w:tbl>`,
		para(run("Ref {UNMAPPED}")),
	)
	return createDOCXBytes(t, doc, map[string]string{
		"word/header1.xml": headerXML(para(run("Certificate for {NAME}"))),
		"word/footer1.xml": footerXML(para(run("{"), run("AMOUNT"), run("} total"))),
		"word/styles.xml":  stylesXML,
	})
}

func prepareBytes(t testing.TB, data []byte) *Template {
	t.Helper()
	tmpl, err := PrepareBytes(data)
	require.NoError(t, err)
	return tmpl
}

// readPart returns one entry of a zip archive.
func readPart(t testing.TB, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return content
	}
	t.Fatalf("part %s not found", name)
	return nil
}

// partText returns the paragraph texts of a part, one per line.
func partText(t testing.TB, data []byte, name string) string {
	t.Helper()
	part, err := dmxml.ParsePart(name, readPart(t, data, name))
	require.NoError(t, err)
	var lines []string
	for _, p := range part.Paragraphs() {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func zipEntries(t testing.TB, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
