package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadCSV reads an inventory CSV with a header row and builds an index.
// The header must contain product_id and name columns; any other columns
// are available as optional search fields.
func LoadCSV(path string, opts Options) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory: %w", err)
	}
	defer f.Close()

	idx, err := ReadCSV(f, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("records", idx.Len()).Msg("inventory loaded")
	return idx, nil
}

// ReadCSV parses inventory rows from r and builds an index.
func ReadCSV(r io.Reader, opts Options) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; missing cells become empty

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Column: "product_id"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if !containsColumn(cols, "product_id") {
		return nil, &SchemaError{Column: "product_id"}
	}
	if !containsColumn(cols, "name") {
		return nil, &SchemaError{Column: "name"}
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read inventory row: %w", err)
		}
		line++

		values := make(map[string]string, len(cols))
		for i, col := range cols {
			if i < len(record) {
				values[col] = record[i]
			}
		}
		rows = append(rows, Row{Line: line, Values: values})
	}

	return Build(rows, opts)
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
