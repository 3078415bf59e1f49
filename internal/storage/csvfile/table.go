package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yegors/weekend-fares/internal/fares"
)

// FileMode is the permission of the written table. The query service may run
// as a different user than the scanner.
const FileMode os.FileMode = 0o644

// Write replaces the table at path with records, in fares.Columns order.
// The file is written next to path and renamed into place.
func Write(path string, records []fares.Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".flights-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set table permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move table into place: %w", err)
	}
	return nil
}

// Encode writes the header and one row per record
func Encode(w io.Writer, records []fares.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(fares.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Values()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

// Read loads the whole table at path. A missing file is reported with an
// error wrapping os.ErrNotExist.
func Read(path string) ([]fares.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a table by header name. Unknown columns are ignored and
// missing ones read as empty strings.
func Decode(r io.Reader) ([]fares.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []fares.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	records := []fares.Record{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		get := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		records = append(records, fares.Record{
			Origin:            get("origin"),
			Destination:       get("destination"),
			DepartDate:        get("depart_date"),
			ReturnDate:        get("return_date"),
			PriceTotal:        get("price_total"),
			Currency:          get("currency"),
			ValidatingAirline: get("validating_airline"),
			OutboundLegs:      get("outbound_legs"),
			ReturnLegs:        get("return_legs"),
			BookingLink:       get("united_booking_link"),
		})
	}
	return records, nil
}
