// Package docmerge merges the rows of a CSV file into a DOCX template to
// produce one personalized document per row.
//
// # Quick Start
//
//	table, err := docmerge.ReadCSVFile("people.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tmpl, err := docmerge.PrepareFile("certificate.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := docmerge.Generate(ctx, docmerge.Job{
//	    Table:    table,
//	    Template: tmpl,
//	    Mappings: map[string]docmerge.FieldMapping{
//	        "NAME":   docmerge.NewFieldMapping(true, "first_name", "last_name"),
//	        "AMOUNT": docmerge.NewFieldMapping(false, "amount"),
//	    },
//	    Filename:  docmerge.FilenameSpec{Field1: "last_name", Prefix: "cert_"},
//	    OutputDir: "out",
//	    Archive:   true,
//	})
//
// # Placeholders
//
// A placeholder is a name in single braces, such as {NAME} or {Due Date}.
// Names are case-sensitive and may contain anything but braces. Word often
// splits typed text over several runs; placeholders are matched on the
// reassembled text of each paragraph, so a split placeholder is still found
// and replaced. The replacement takes the formatting of the run where the
// placeholder starts.
//
// Placeholders are looked up in the main document, in table cells, in text
// boxes, and in every header and footer part. Placeholders without a mapping
// are left in the output unchanged.
//
// # Field Mappings
//
// A FieldMapping lists up to five candidate columns in priority order. By
// default the first column with a non-blank value is used. With Combine set,
// all non-blank values are joined with a single space, so first and last
// name columns can fill one {NAME} placeholder.
//
// # Output Names
//
// File names are built from up to two columns, an optional prefix and an
// optional suffix. Values are folded to ASCII where possible and reduced to
// letters, digits, "_" and "-". Duplicate names get "_1", "_2", ... before
// the extension, and names of documents already in the output directory are
// never reused unless Job.Overwrite is set.
//
// # Configuration
//
// The package reads these environment variables at startup:
//
//	DOCMERGE_LOG_LEVEL    - debug, info, warn, error or off
//	DOCMERGE_ARCHIVE_NAME - archive file name (default generated_documents.zip)
//	DOCMERGE_STATE_DB     - profile database path used by the command line tool
//	DOCMERGE_OVERWRITE    - replace existing documents
//	DOCMERGE_STRICT       - reject mappings to unknown columns
//
// Logging goes through go.uber.org/zap and is silent until SetLogger is
// called.
package docmerge
