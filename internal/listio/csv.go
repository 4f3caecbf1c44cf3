package listio

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/model"
)

// StreamCSV reads CSV records and sends them to a channel. Records may have
// varying field counts. Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV parses a CSV document with a header row.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	rowCh, errCh := StreamCSV(ctx, r)

	var records [][]string
	for rec := range rowCh {
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return buildTable(stripBOM(records)), nil
}

// ReadCSVFile parses the CSV file at path.
func ReadCSVFile(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(ctx, f)
}

// WriteCSV writes a header of columns followed by one record per row.
func WriteCSV(w io.Writer, columns []string, rows []model.Row, opts ExportOptions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	if err := cw.WriteAll(exportRecords(columns, rows, opts)); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	return nil
}

// WriteCSVFile writes rows to a new CSV file at path.
func WriteCSVFile(path string, columns []string, rows []model.Row, opts ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create file")
	}
	if err := WriteCSV(f, columns, rows, opts); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "csv: close file")
}

// stripBOM removes a UTF-8 byte order mark from the first header cell.
func stripBOM(records [][]string) [][]string {
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = trimBOM(records[0][0])
	}
	return records
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
