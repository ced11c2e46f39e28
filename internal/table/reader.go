package table

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNoHeader is returned by Stream when the input has no header row.
var ErrNoHeader = eris.New("table: missing header row")

// Stream reads the header row synchronously, then streams the remaining rows
// on the returned channel. The caller must drain rows; a read failure or
// cancellation is reported on errc. Both channels are closed when reading
// stops.
func Stream(ctx context.Context, r io.Reader) ([]string, <-chan []string, <-chan error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "table: read header")
	}

	rows := make(chan []string, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(rows)
		defer close(errc)

		for {
			if ctx.Err() != nil {
				errc <- eris.Wrap(ctx.Err(), "table: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- eris.Wrap(err, "table: read row")
				return
			}

			select {
			case rows <- record:
			case <-ctx.Done():
				errc <- eris.Wrap(ctx.Err(), "table: context cancelled")
				return
			}
		}
	}()

	return header, rows, errc, nil
}

// Index maps column names to their position in header. When a name repeats,
// the first occurrence wins.
func Index(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}
