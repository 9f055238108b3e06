package docmerge

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Row maps column name to the raw cell value of one CSV data line.
type Row map[string]string

// Value returns the trimmed value of column, or "" when the column is absent.
func (r Row) Value(column string) string {
	return strings.TrimSpace(r[column])
}

// IsEmpty reports whether every value of the row is blank.
func (r Row) IsEmpty() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Table is a loaded CSV file.
type Table struct {
	Headers []string
	Rows    []Row
	// Encoding is the name of the encoding the file was decoded with.
	Encoding string
	// Delimiter is the detected field separator.
	Delimiter rune
}

// Columns returns a copy of the header names in file order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.Headers...)
}

// csvEncodings are probed in order; the first one that yields a parseable
// table wins.
var csvEncodings = []struct {
	name   string
	decode func([]byte) (string, error)
}{
	{"utf-8-sig", decodeUTF8BOM},
	{"utf-8", decodeUTF8},
	{"cp1252", decodeCharmap(charmap.Windows1252)},
	{"latin1", decodeCharmap(charmap.ISO8859_1)},
}

// csvDelimiters are the candidate separators, in tie-break order.
var csvDelimiters = []rune{',', ';', '\t', '|'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeUTF8BOM(data []byte) (string, error) {
	if !bytes.HasPrefix(data, utf8BOM) {
		return "", errors.New("no byte order mark")
	}
	return decodeUTF8(data[len(utf8BOM):])
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("invalid utf-8")
	}
	return string(data), nil
}

// decodeCharmap decodes single-byte encodings. A leading UTF-8 byte order
// mark is dropped so it does not end up in the first header.
func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		data = bytes.TrimPrefix(data, utf8BOM)
		out, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		// Undefined code points decode to U+FFFD.
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", fmt.Errorf("undefined %s code point", cm.String())
		}
		return string(out), nil
	}
}

// ReadCSVFile loads a CSV file, auto-detecting its encoding and delimiter.
func ReadCSVFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Cause: err}
	}
	table, err := ParseCSV(data)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			inputErr.Path = path
		}
		return nil, err
	}
	return table, nil
}

// ReadCSV loads CSV data from r, auto-detecting its encoding and delimiter.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InputError{Cause: err}
	}
	return ParseCSV(data)
}

// ParseCSV decodes data with the first encoding that works and splits it
// with the first ranked delimiter that parses without error.
func ParseCSV(data []byte) (*Table, error) {
	var lastErr error
	for _, enc := range csvEncodings {
		text, err := enc.decode(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", enc.name, err)
			continue
		}
		for _, delim := range rankDelimiters(text) {
			table, err := parseTable(text, delim)
			if err != nil {
				lastErr = fmt.Errorf("%s with delimiter %q: %w", enc.name, delim, err)
				continue
			}
			table.Encoding = enc.name
			GetLogger().Debug("csv loaded",
				zap.String("encoding", enc.name),
				zap.String("delimiter", string(delim)),
				zap.Int("columns", len(table.Headers)),
				zap.Int("rows", len(table.Rows)))
			return table, nil
		}
	}
	return nil, &InputError{Cause: lastErr}
}

// rankDelimiters orders the candidate delimiters by how often they occur in
// the header line. Ties keep the candidate order.
func rankDelimiters(text string) []rune {
	header := text
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}

	ranked := append([]rune(nil), csvDelimiters...)
	counts := make(map[rune]int, len(ranked))
	for _, d := range ranked {
		counts[d] = strings.Count(header, string(d))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	return ranked
}

func parseTable(text string, delim rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoHeaders
	}
	if err != nil {
		return nil, err
	}

	table := &Table{
		Headers:   normalizeHeaders(header),
		Delimiter: delim,
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(table.Headers) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(table.Headers), len(record))
		}

		row := make(Row, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// normalizeHeaders names blank headers "Unnamed: N" and numbers repeated
// headers "name.1", "name.2", so every column has a unique key.
func normalizeHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
