package docmerge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-docmerge/pkg/store"
)

// ProgressFunc is called after every row with the number of rows handled so
// far and the total number of rows.
type ProgressFunc func(done, total int)

// Job describes one batch generation.
type Job struct {
	Table    *Table
	Template *Template
	// Mappings maps placeholder names to the columns that fill them.
	Mappings map[string]FieldMapping
	Filename FilenameSpec
	// OutputDir is created when missing.
	OutputDir string

	// Archive zips every written document into ArchiveName inside OutputDir.
	Archive     bool
	ArchiveName string

	// Overwrite lets generated names replace documents already present in
	// OutputDir. Otherwise those names are treated as taken.
	Overwrite bool
	// Strict rejects mappings that reference columns missing from Table.
	Strict bool

	Progress ProgressFunc

	// Store, when set, receives the job's profile under ProfileKey before
	// any row is processed.
	Store      store.Store
	ProfileKey string
}

// Profile returns the persistable configuration of the job.
func (j *Job) Profile() *Profile {
	return &Profile{
		Mappings: j.Mappings,
		Filename: j.Filename,
		Archive:  j.Archive,
	}
}

// Output is one written document.
type Output struct {
	// Row is the 0-based index of the data row in the CSV.
	Row  int
	Path string
}

// Result summarizes a batch run.
type Result struct {
	RunID       string
	Files       []Output
	Skipped     int
	SkippedRows []int
	// ArchivePath is set when the archive was written.
	ArchivePath string
	// ArchiveErr is set when archiving was requested and failed. The
	// documents themselves are still in place.
	ArchiveErr error
}

// Paths returns the paths of the written documents in row order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// Generate renders one document per non-empty row of job.Table into
// job.OutputDir. Rows whose values are all blank are skipped.
//
// Input problems are reported before any file is written. A failing row
// stops the run with a *RowError; documents written before it remain. When
// ctx is cancelled between rows the partial result is returned with
// ctx.Err().
func Generate(ctx context.Context, job Job) (*Result, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	logger := GetLogger().With(zap.String("run", result.RunID))

	if err := prepareOutputDir(job.OutputDir); err != nil {
		return nil, err
	}

	if job.Store != nil && job.ProfileKey != "" {
		if err := SaveProfile(ctx, job.Store, job.ProfileKey, job.Profile()); err != nil {
			logger.Warn("failed to save profile", zap.String("key", job.ProfileKey), zap.Error(err))
		}
	}

	used := &NameSet{}
	if !job.Overwrite {
		if err := reserveExisting(job.OutputDir, used); err != nil {
			return nil, NewDocumentError("list output", job.OutputDir, err)
		}
	}

	rows := job.Table.Rows
	total := len(rows)
	logger.Info("generation started",
		zap.Int("rows", total),
		zap.String("output", job.OutputDir))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			logger.Warn("generation cancelled", zap.Int("done", i), zap.Int("rows", total))
			return result, err
		}

		if row.IsEmpty() {
			result.Skipped++
			result.SkippedRows = append(result.SkippedRows, i)
			logger.Debug("skipping empty row", zap.Int("row", i))
		} else {
			path, err := job.writeRow(row, used)
			if err != nil {
				return result, &RowError{Row: i, Cause: err}
			}
			result.Files = append(result.Files, Output{Row: i, Path: path})
		}

		if job.Progress != nil {
			job.Progress(i+1, total)
		}
	}

	if job.Archive && len(result.Files) > 0 {
		archivePath := filepath.Join(job.OutputDir, job.archiveName())
		if err := WriteArchive(archivePath, result.Paths()); err != nil {
			result.ArchiveErr = err
			logger.Warn("failed to write archive", zap.String("path", archivePath), zap.Error(err))
		} else {
			result.ArchivePath = archivePath
		}
	}

	logger.Info("generation finished",
		zap.Int("files", len(result.Files)),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (j *Job) writeRow(row Row, used *NameSet) (string, error) {
	data, err := j.Template.RenderRow(row, j.Mappings)
	if err != nil {
		return "", err
	}
	path := filepath.Join(j.OutputDir, BuildName(j.Filename, row, used))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (j *Job) archiveName() string {
	if j.ArchiveName != "" {
		return j.ArchiveName
	}
	return DefaultArchiveName
}

func (j *Job) validate() error {
	verr := &ValidationError{}
	if j.Table == nil {
		verr.add("table", "no csv loaded")
	} else if len(j.Table.Headers) == 0 {
		verr.add("table", "csv has no columns")
	}
	if j.Template == nil {
		verr.add("template", "no template loaded")
	}
	if strings.TrimSpace(j.OutputDir) == "" {
		verr.add("output", "no output directory given")
	}
	if strings.ContainsAny(j.ArchiveName, `/\`) {
		verr.add("archive", "archive name must be a file name, not a path: %s", j.ArchiveName)
	}
	if err := verr.err(); err != nil {
		return err
	}

	if err := ValidateMappings(nil, j.Mappings); err != nil {
		return err
	}
	if err := ValidateMappings(j.Table.Headers, j.Mappings); err != nil {
		if j.Strict {
			return err
		}
		GetLogger().Warn("mapped columns missing from csv", zap.Error(err))
	}
	return nil
}

// prepareOutputDir creates dir and checks that files can be created in it.
func prepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewDocumentError("create output", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".docmerge-*")
	if err != nil {
		return NewDocumentError("write output", dir, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewDocumentError("write output", dir, err)
	}
	return nil
}

// reserveExisting marks the .docx files already in dir as taken.
func reserveExisting(dir string, used *NameSet) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), docxExt) {
			used.Add(e.Name())
		}
	}
	return nil
}
