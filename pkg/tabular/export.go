package tabular

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mchmarny/cargoscan/pkg/manifest"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

var errNilResult = errors.New("result required")

// Write encodes res in the given format.
func Write(w io.Writer, format Format, res *manifest.RankedResult) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatPDF:
		return WritePDF(w, res, PDFOptions{})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type of an export format.
func ContentType(format Format) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ExportFile writes res to path in the format implied by its extension.
// The file is replaced atomically so readers never observe a partial export.
func ExportFile(path string, res *manifest.RankedResult) error {
	format, err := FormatFromName(path)
	if err != nil {
		return err
	}
	if format == FormatTSV {
		return fmt.Errorf("%w: tsv export", ErrUnsupportedFormat)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return Write(w, format, res)
	})
}

func writeFileAtomic(path string, write func(io.Writer) error) (retErr error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
