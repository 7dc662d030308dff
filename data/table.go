// Package data implements the in-memory tabular representation (C1):
// TabularData, the common-key DataPackage built from a feature table and a
// label table, and the class-balance queries the rest of the search relies
// on.
package data

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrDataInvalid is wrapped by every structural data error: a missing label
// column, fewer than two label outcomes, an empty common-key intersection.
var ErrDataInvalid = errors.New("data invalid")

// naTokens are the literal missing-value markers erased during construction.
var naTokens = map[string]bool{"NA": true, "nan": true}

// Header assigns each column position a name and a declared type.
type Header struct {
	Names []string
	Types []string // "numeric" or "categorical", parallel to Names
}

// IndexOf returns the column position of name, or -1 if not present.
func (h Header) IndexOf(name string) int {
	for i, n := range h.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// TabularData is an ordered mapping from a string sample key to a row of
// values, plus the header naming each column. Every stored row has exactly
// as many values as the header has columns; header names are unique; keys
// are unique. Rows containing "NA" or "nan" are dropped at construction
// (erase-incomplete policy).
type TabularData struct {
	Header Header
	rows   map[string][]string
	keys   []string // insertion order, for deterministic iteration
}

// NewTabularData validates header uniqueness and row width, erases
// incomplete rows, and returns the resulting table.
func NewTabularData(header Header, records map[string][]string, order []string) (*TabularData, error) {
	seen := make(map[string]bool, len(header.Names))
	for _, n := range header.Names {
		if seen[n] {
			return nil, errors.Wrapf(ErrDataInvalid, "duplicate header name %q", n)
		}
		seen[n] = true
	}

	t := &TabularData{
		Header: header,
		rows:   make(map[string][]string, len(records)),
	}

	for _, key := range order {
		row, ok := records[key]
		if !ok {
			continue
		}
		if len(row) != len(header.Names) {
			return nil, errors.Wrapf(ErrDataInvalid, "row %q has %d values, header has %d columns", key, len(row), len(header.Names))
		}
		if rowIncomplete(row) {
			continue
		}
		if _, dup := t.rows[key]; dup {
			return nil, errors.Wrapf(ErrDataInvalid, "duplicate sample key %q", key)
		}
		t.rows[key] = row
		t.keys = append(t.keys, key)
	}

	return t, nil
}

func rowIncomplete(row []string) bool {
	for _, v := range row {
		if naTokens[strings.TrimSpace(v)] {
			return true
		}
	}
	return false
}

// Keys returns the sample keys in insertion order.
func (t *TabularData) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// HasKey reports whether key is present.
func (t *TabularData) HasKey(key string) bool {
	_, ok := t.rows[key]
	return ok
}

// Row returns the raw string row for key.
func (t *TabularData) Row(key string) ([]string, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// Value returns the raw string at (key, colIndex).
func (t *TabularData) Value(key string, colIndex int) (string, bool) {
	r, ok := t.rows[key]
	if !ok || colIndex < 0 || colIndex >= len(r) {
		return "", false
	}
	return r[colIndex], true
}

// ValueByName returns the raw string at (key, colName).
func (t *TabularData) ValueByName(key, colName string) (string, bool) {
	idx := t.Header.IndexOf(colName)
	if idx < 0 {
		return "", false
	}
	return t.Value(key, idx)
}

// NumericRow returns the row for key parsed as float64, in column order.
func (t *TabularData) NumericRow(key string) ([]float64, error) {
	row, ok := t.rows[key]
	if !ok {
		return nil, errors.Wrapf(ErrDataInvalid, "unknown sample key %q", key)
	}
	return parseFloats(row)
}

func parseFloats(row []string) ([]float64, error) {
	out := make([]float64, len(row))
	for i, v := range row {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrDataInvalid, "column %d: %q is not numeric", i, v)
		}
		out[i] = f
	}
	return out, nil
}
