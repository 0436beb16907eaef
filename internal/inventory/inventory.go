// Package inventory loads product records and prepares them for matching.
package inventory

import (
	"fmt"
	"strings"
)

// DefaultSearchFields are the optional descriptive columns folded into a
// record's search text when present, in addition to the product name.
var DefaultSearchFields = []string{"category", "description", "color", "material", "size"}

// Record is a single inventory row. Immutable after load.
type Record struct {
	ProductID  string
	Name       string
	Fields     map[string]string // optional descriptive fields present and non-empty
	SearchText string            // lower-cased name + descriptive fields, space-joined
}

// Row is a raw inventory row before indexing, keyed by column name.
type Row struct {
	Line   int // 1-based line in the source, for error messages
	Values map[string]string
}

// SchemaError indicates the inventory source is missing required data.
// It is fatal: matching never starts on a malformed inventory.
type SchemaError struct {
	Column string
	Line   int // 0 when the column is missing entirely
}

func (e *SchemaError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("inventory: required column %q not found", e.Column)
	}
	return fmt.Sprintf("inventory: line %d: required column %q is empty", e.Line, e.Column)
}

// Options controls index construction.
type Options struct {
	// SearchFields lists the optional columns folded into search text.
	// Defaults to DefaultSearchFields when empty.
	SearchFields []string
}

// Index holds indexed inventory records in load order. Load order is
// significant: the matcher breaks score ties by first-seen record.
type Index struct {
	records  []Record
	nameByID map[string]string
}

// Build indexes raw rows. Every row must have a non-empty product_id and
// name; duplicate product ids are accepted as distinct rows.
func Build(rows []Row, opts Options) (*Index, error) {
	fields := opts.SearchFields
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	idx := &Index{
		records:  make([]Record, 0, len(rows)),
		nameByID: make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		id := strings.TrimSpace(row.Values["product_id"])
		if id == "" {
			return nil, &SchemaError{Column: "product_id", Line: row.Line}
		}
		name := strings.TrimSpace(row.Values["name"])
		if name == "" {
			return nil, &SchemaError{Column: "name", Line: row.Line}
		}

		rec := Record{
			ProductID: id,
			Name:      name,
			Fields:    map[string]string{},
		}
		terms := []string{name}
		for _, f := range fields {
			v := strings.TrimSpace(row.Values[f])
			if v == "" {
				continue
			}
			rec.Fields[f] = v
			terms = append(terms, v)
		}
		rec.SearchText = strings.ToLower(strings.Join(terms, " "))

		idx.records = append(idx.records, rec)
		if _, ok := idx.nameByID[id]; !ok {
			idx.nameByID[id] = name
		}
	}
	return idx, nil
}

// Records returns the indexed records in load order.
func (i *Index) Records() []Record { return i.records }

// Len returns the number of records.
func (i *Index) Len() int { return len(i.records) }

// NameOf returns the name of the first-loaded record with the given id.
func (i *Index) NameOf(productID string) (string, bool) {
	name, ok := i.nameByID[productID]
	return name, ok
}
