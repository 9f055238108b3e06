// Package xml provides a text model for WordprocessingML parts.
//
// A DOCX part (document.xml, headerN.xml, footerN.xml) is scanned once with a
// raw token decoder. Every <w:p> becomes a Paragraph and every <w:t> inside it
// becomes a TextNode that remembers the byte range it occupies in the part.
//
// # Byte ranges
//
// Parts are never re-encoded. A rewrite splices new <w:t> content into a copy
// of the original bytes, so namespace prefixes and elements this package does
// not know about come out exactly as they went in.
//
// # Paragraph text
//
// Word frequently splits what the author typed as one word into several runs
// (spell-check marks, revision ids, formatting edits). Paragraph.Text joins
// the text of all runs of a paragraph, so a token typed as "{NAME}" can be
// found even when the part stores it as "{NA" and "ME}". Paragraphs nested in
// text boxes are separate paragraphs; their text is not mixed into the
// enclosing one.
//
// # Usage
//
//	part, err := xml.ParsePart("word/document.xml", data)
//	if err != nil {
//	    return err
//	}
//	var edits []xml.Edit
//	for _, para := range part.Paragraphs() {
//	    if strings.Contains(para.Text(), "{NAME}") {
//	        edits = append(edits, xml.Edit{Node: para.Nodes[0], Text: "John"})
//	    }
//	}
//	out := part.Rewrite(edits)
package xml
