package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WordNamespace is the WordprocessingML main namespace.
const WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// TextNode is a single <w:t> element and the byte ranges it covers.
type TextNode struct {
	// Text is the decoded character data of the element.
	Text string

	start       int // '<' of the start tag
	contentEnd  int // '<' of the end tag
	end         int // just past the end tag
	selfClosing bool
}

// Paragraph is one <w:p> with the text nodes that belong to it directly.
type Paragraph struct {
	Nodes []*TextNode
}

// Text returns the concatenated text of all runs in the paragraph
func (p *Paragraph) Text() string {
	if len(p.Nodes) == 1 {
		return p.Nodes[0].Text
	}
	var b strings.Builder
	for _, n := range p.Nodes {
		b.WriteString(n.Text)
	}
	return b.String()
}

// Part is a parsed WordprocessingML part.
type Part struct {
	Name       string
	data       []byte
	prefix     string
	paragraphs []*Paragraph
}

// Edit replaces the text of one node.
type Edit struct {
	Node *TextNode
	Text string
}

// ParsePart scans data and indexes its paragraphs. data is retained and must
// not be modified by the caller afterwards.
func ParsePart(name string, data []byte) (*Part, error) {
	part := &Part{
		Name:   name,
		data:   data,
		prefix: "w",
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	var (
		open    []xml.Name
		stack   []*Paragraph
		current *TextNode
		text    strings.Builder
		sawRoot bool
	)

	for {
		offset := int(d.InputOffset())
		token, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		end := int(d.InputOffset())

		switch t := token.(type) {
		case xml.StartElement:
			open = append(open, t.Name)
			if !sawRoot {
				sawRoot = true
				part.prefix = wordPrefix(t.Attr, part.prefix)
			}
			switch {
			case part.isWord(t.Name, "p"):
				para := &Paragraph{}
				stack = append(stack, para)
				part.paragraphs = append(part.paragraphs, para)
			case part.isWord(t.Name, "t") && len(stack) > 0:
				node := &TextNode{start: offset}
				if bytes.HasSuffix(data[offset:end], []byte("/>")) {
					// The decoder reports the matching end element next
					// without consuming input.
					node.selfClosing = true
					node.contentEnd = end
					node.end = end
					top := stack[len(stack)-1]
					top.Nodes = append(top.Nodes, node)
					continue
				}
				current = node
				text.Reset()
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if len(open) == 0 || open[len(open)-1] != t.Name {
				return nil, fmt.Errorf("failed to parse %s: unexpected end element %s at offset %d", name, t.Name.Local, offset)
			}
			open = open[:len(open)-1]
			switch {
			case current != nil && part.isWord(t.Name, "t"):
				current.Text = text.String()
				current.contentEnd = offset
				current.end = end
				top := stack[len(stack)-1]
				top.Nodes = append(top.Nodes, current)
				current = nil
			case part.isWord(t.Name, "p") && len(stack) > 0:
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("failed to parse %s: no root element", name)
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("failed to parse %s: unexpected EOF inside %s", name, open[len(open)-1].Local)
	}
	return part, nil
}

// wordPrefix finds the prefix bound to the WordprocessingML namespace on the
// root element. An unprefixed default namespace yields "".
func wordPrefix(attrs []xml.Attr, fallback string) string {
	for _, attr := range attrs {
		if attr.Value != WordNamespace {
			continue
		}
		if attr.Name.Space == "xmlns" {
			return attr.Name.Local
		}
		if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			return ""
		}
	}
	return fallback
}

func (p *Part) isWord(name xml.Name, local string) bool {
	return name.Space == p.prefix && name.Local == local
}

// Paragraphs returns the paragraphs of the part in document order of their
// start tags. Nested paragraphs follow their enclosing paragraph.
func (p *Part) Paragraphs() []*Paragraph {
	return p.paragraphs
}

// Bytes returns the original part content.
func (p *Part) Bytes() []byte {
	return p.data
}

// Rewrite returns a copy of the part with the given node texts replaced.
// Newlines in replacement text become <w:br/> inside the same run. The part
// itself is not modified.
func (p *Part) Rewrite(edits []Edit) []byte {
	if len(edits) == 0 {
		out := make([]byte, len(p.data))
		copy(out, p.data)
		return out
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Node.start < sorted[j].Node.start
	})

	var out bytes.Buffer
	out.Grow(len(p.data) + 64*len(sorted))
	pos := 0
	for _, e := range sorted {
		n := e.Node
		if n.start < pos {
			// Same node edited twice; the first edit wins.
			continue
		}
		out.Write(p.data[pos:n.start])
		out.WriteString(p.openTag())
		p.writeText(&out, e.Text)
		if n.selfClosing {
			out.WriteString(p.closeTag())
			pos = n.end
		} else {
			pos = n.contentEnd
		}
	}
	out.Write(p.data[pos:])
	return out.Bytes()
}

func (p *Part) qualified(local string) string {
	if p.prefix == "" {
		return local
	}
	return p.prefix + ":" + local
}

func (p *Part) openTag() string {
	return "<" + p.qualified("t") + ` xml:space="preserve">`
}

func (p *Part) closeTag() string {
	return "</" + p.qualified("t") + ">"
}

func (p *Part) writeText(out *bytes.Buffer, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString(p.closeTag())
			out.WriteString("<" + p.qualified("br") + "/>")
			out.WriteString(p.openTag())
		}
		escapeText(out, line)
	}
}

// escapeText writes s with the five XML special characters escaped.
// Characters XML 1.0 does not allow, such as most C0 controls, are dropped.
func escapeText(out *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			out.WriteString("&amp;")
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '"':
			out.WriteString("&quot;")
		case '\'':
			out.WriteString("&apos;")
		default:
			if isXMLChar(r) {
				out.WriteRune(r)
			}
		}
	}
}

// isXMLChar reports whether r matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
