package data

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadCSV reads a table whose first column is the sample key and whose
// header row names the remaining columns. A column's declared type is
// inferred as "numeric" if every non-missing value in it parses as a
// float64, "categorical" otherwise.
func LoadCSV(r io.Reader) (*TabularData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "data: reading CSV header")
	}
	if len(header) < 2 {
		return nil, errors.Wrap(ErrDataInvalid, "CSV header must name at least one column beyond the sample key")
	}
	colNames := header[1:]

	records := make(map[string][]string)
	order := make([]string, 0)
	numeric := make([]bool, len(colNames))
	for i := range numeric {
		numeric[i] = true
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "data: reading CSV row")
		}
		if len(row) != len(header) {
			return nil, errors.Wrapf(ErrDataInvalid, "row has %d columns, header has %d", len(row), len(header))
		}

		key := row[0]
		values := row[1:]
		records[key] = values
		order = append(order, key)

		for i, v := range values {
			v = strings.TrimSpace(v)
			if naTokens[v] {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric[i] = false
			}
		}
	}

	types := make([]string, len(colNames))
	for i, isNumeric := range numeric {
		if isNumeric {
			types[i] = "numeric"
		} else {
			types[i] = "categorical"
		}
	}

	return NewTabularData(Header{Names: colNames, Types: types}, records, order)
}

// WriteCSV writes t back out in the same sample-key-first form LoadCSV
// reads, in t's own key order.
func WriteCSV(w io.Writer, t *TabularData) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := append([]string{"key"}, t.Header.Names...)
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "data: writing CSV header")
	}

	for _, key := range t.Keys() {
		row, _ := t.Row(key)
		if err := writer.Write(append([]string{key}, row...)); err != nil {
			return errors.Wrapf(err, "data: writing CSV row %q", key)
		}
	}

	return writer.Error()
}
