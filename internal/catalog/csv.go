package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a catalog table lacks a required column
var ErrMissingColumn = errors.New("catalog: missing required column")

// ReadCSV parses a catalog table. Columns are located by header name:
// "title" is required, "categories" (or "genres") is optional. Row order
// defines the entry ids.
func ReadCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	titleCol, catCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "title":
			titleCol = i
		case "categories", "genres":
			if catCol < 0 {
				catCol = i
			}
		}
	}
	if titleCol < 0 {
		return nil, fmt.Errorf("%w: title", ErrMissingColumn)
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if titleCol >= len(record) {
			return nil, fmt.Errorf("row %d: %w: title", line, ErrMissingColumn)
		}

		var categories []string
		if catCol >= 0 && catCol < len(record) {
			categories = SplitCategories(record[catCol])
		}
		entries = append(entries, NewEntry(len(entries), record[titleCol], categories))
	}

	return entries, nil
}

// WriteCSV serializes entries as id,title,categories in id order
func WriteCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "title", "categories"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{strconv.Itoa(e.ID), e.Title, e.CategoryString()}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", e.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Search returns entries whose title contains the query, in catalog order
func Search(entries []Entry, query string, limit int) []Entry {
	q := NormalizeLookupKey(query)
	if q == "" {
		return nil
	}
	var out []Entry
	for _, e := range entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}
