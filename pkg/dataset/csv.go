package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Field declares the expected type of one CSV column. Layout is the time
// layout used for timestamp fields and defaults to time.RFC3339.
type Field struct {
	Name   string
	Type   Type
	Layout string
}

// Schema declares how a CSV file maps onto a dataset.
type Schema struct {
	Fields []Field
	Target string
}

var missingTokens = map[string]struct{}{
	"":    {},
	"NA":  {},
	"NaN": {},
	"nan": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[s]

	return ok
}

// ReadCSV reads a headered CSV stream into a dataset using the declared
// schema. Header columns not present in the schema are an error, as is a
// schema field missing from the header.
func ReadCSV(r io.Reader, schema Schema) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read csv")
	}
	if len(records) == 0 {
		return nil, ErrNoColumns
	}

	header := records[0]
	rows := records[1:]

	fields := make(map[string]Field, len(schema.Fields))
	for _, f := range schema.Fields {
		fields[f.Name] = f
	}
	if len(fields) != len(header) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "schema has %d fields, header has %d columns", len(fields), len(header))
	}

	cols := make([]Column, 0, len(header))
	for j, name := range header {
		field, ok := fields[name]
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "header column %q not declared", name)
		}

		col, err := parseColumn(field, rows, j)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	ds, err := New(cols...)
	if err != nil {
		return nil, err
	}
	if schema.Target != "" {
		if err := ds.SetTarget(schema.Target); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

func parseColumn(field Field, rows [][]string, j int) (Column, error) {
	switch field.Type {
	case Numeric:
		values := make([]float64, len(rows))
		for i, row := range rows {
			if isMissingToken(row[j]) {
				values[i] = math.NaN()

				continue
			}
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return Column{}, errors.Wrapf(err, "column %q row %d", field.Name, i)
			}
			values[i] = v
		}

		return Num(field.Name, values), nil
	case Timestamp:
		layout := field.Layout
		if layout == "" {
			layout = time.RFC3339
		}
		values := make([]time.Time, len(rows))
		for i, row := range rows {
			if isMissingToken(row[j]) {
				continue
			}
			v, err := time.Parse(layout, row[j])
			if err != nil {
				return Column{}, errors.Wrapf(err, "column %q row %d", field.Name, i)
			}
			values[i] = v
		}

		return Stamp(field.Name, values), nil
	case Categorical, Ordered, Text:
		values := make([]string, len(rows))
		for i, row := range rows {
			if isMissingToken(row[j]) {
				continue
			}
			values[i] = row[j]
		}

		return Column{Name: field.Name, Type: field.Type, Strs: values}, nil
	}

	return Column{}, errors.Wrapf(ErrUnknownType, "column %q", field.Name)
}

// DetectSchema sniffs a schema from the header and raw rows: a column
// whose non-missing values all parse as floats is numeric, one whose
// values all parse as RFC3339 timestamps is a timestamp, everything else
// is categorical.
func DetectSchema(header []string, rows [][]string, target string) Schema {
	schema := Schema{Target: target, Fields: make([]Field, 0, len(header))}

	for j, name := range header {
		numeric, stamped, seen := true, true, false
		for _, row := range rows {
			if isMissingToken(row[j]) {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(row[j], 64); err != nil {
				numeric = false
			}
			if _, err := time.Parse(time.RFC3339, row[j]); err != nil {
				stamped = false
			}
		}

		field := Field{Name: name, Type: Categorical}
		switch {
		case seen && numeric:
			field.Type = Numeric
		case seen && stamped:
			field.Type = Timestamp
			field.Layout = time.RFC3339
		}
		schema.Fields = append(schema.Fields, field)
	}

	return schema
}

// ReadCSVAuto reads a headered CSV stream, sniffing the column types.
// Target may be empty for prediction-time data.
func ReadCSVAuto(r io.Reader, target string) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read csv")
	}
	if len(records) == 0 {
		return nil, ErrNoColumns
	}

	schema := DetectSchema(records[0], records[1:], target)

	return fromRecords(records, schema)
}

func fromRecords(records [][]string, schema Schema) (*Dataset, error) {
	header := records[0]
	rows := records[1:]

	cols := make([]Column, 0, len(header))
	for j := range header {
		col, err := parseColumn(schema.Fields[j], rows, j)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	ds, err := New(cols...)
	if err != nil {
		return nil, err
	}
	if schema.Target != "" {
		if err := ds.SetTarget(schema.Target); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// ErrSchemaMismatch reports a CSV header that does not match the declared schema.
var ErrSchemaMismatch = errors.New("csv header does not match schema")
