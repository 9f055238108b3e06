package docmerge

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteArchive zips files into a new archive at path. Entries are stored
// under their base names. A partially written archive is removed.
func WriteArchive(path string, files []string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := zip.NewWriter(out)
	for _, file := range files {
		if err := addToArchive(w, file); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

func addToArchive(w *zip.Writer, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", file, err)
	}
	header.Name = filepath.Base(file)
	header.Method = zip.Deflate

	fw, err := w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", header.Name, err)
	}
	if _, err := io.Copy(fw, in); err != nil {
		return fmt.Errorf("failed to write %s: %w", header.Name, err)
	}
	return nil
}
