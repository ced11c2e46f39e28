// Package table reads and writes the listing CSV files.
package table

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Appender adds rows to a CSV file across calls, emitting the header only
// when the file does not exist yet.
type Appender struct {
	path   string
	header []string
	total  int
}

// NewAppender returns an Appender for path. Nothing is opened until the first
// Append.
func NewAppender(path string, header []string) *Appender {
	return &Appender{path: path, header: header}
}

// Path returns the output file path.
func (a *Appender) Path() string { return a.path }

// Total returns the number of rows appended through this Appender.
func (a *Appender) Total() int { return a.total }

// Append writes rows to the end of the file and returns the running total.
// Whether the header is written is decided by the file's existence right
// before it is opened.
func (a *Appender) Append(rows [][]string) (int, error) {
	_, statErr := os.Stat(a.path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return a.total, eris.Wrapf(statErr, "table: stat %s", a.path)
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return a.total, eris.Wrapf(err, "table: open %s", a.path)
	}

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(a.header); err != nil {
			_ = f.Close()
			return a.total, eris.Wrap(err, "table: write header")
		}
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return a.total, eris.Wrap(err, "table: write rows")
	}
	if err := f.Close(); err != nil {
		return a.total, eris.Wrapf(err, "table: close %s", a.path)
	}

	a.total += len(rows)
	zap.L().Info("table: rows appended",
		zap.String("path", a.path),
		zap.Int("batch", len(rows)),
		zap.Int("total", a.total),
	)
	return a.total, nil
}

// Writer creates (or truncates) a CSV file and writes the header up front.
// Each row is flushed as it is written.
type Writer struct {
	f *os.File
	w *csv.Writer
	n int
}

// Create opens path for writing and emits header.
func Create(path string, header []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: create %s", path)
	}
	w := &Writer{f: f, w: csv.NewWriter(f)}
	if err := w.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// Write appends one row.
func (w *Writer) Write(row []string) error {
	if err := w.write(row); err != nil {
		return err
	}
	w.n++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int { return w.n }

func (w *Writer) write(row []string) error {
	if err := w.w.Write(row); err != nil {
		return eris.Wrap(err, "table: write row")
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return eris.Wrap(err, "table: flush")
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.f.Close()
		return eris.Wrap(err, "table: flush")
	}
	return eris.Wrap(w.f.Close(), "table: close")
}
