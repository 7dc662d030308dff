// Package config loads the flat "section/key = value" settings files that
// configure a search run and exposes them as an immutable RunConfig. No
// component mutates a RunConfig after construction; pipeline.Model.Set
// records its chosen parameter values on the Model instead of writing
// back into it.
package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrConfigInvalid is wrapped by every configuration error raised by this
// package: a missing required key, a value that does not parse as the
// requested type, or an unparsable line. Value ranges are not checked here.
var ErrConfigInvalid = errors.New("config invalid")

// RunConfig is an immutable, flat key-value store keyed by "section/key".
// Values are stored as their original string form; typed accessors parse
// on read so a bad value only fails the call site that needed it.
type RunConfig struct {
	values map[string]string
}

// Load parses a settings file of the form:
//
//	# comment
//	CentralAi/offspringCount = 20
//	Tree/pool = FeatureSelection,PCA,Oversampling,Undersampling,IsolationForest
//
// Blank lines and lines beginning with '#' are ignored.
func Load(r io.Reader) (RunConfig, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return RunConfig{}, errors.Wrapf(ErrConfigInvalid, "line %d: expected key = value", lineNo)
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			return RunConfig{}, errors.Wrapf(ErrConfigInvalid, "line %d: empty key", lineNo)
		}

		values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return RunConfig{}, errors.Wrap(err, "reading settings")
	}

	return RunConfig{values: values}, nil
}

// New builds a RunConfig directly from a map, primarily for tests and for
// programmatic construction by the CLI driver.
func New(values map[string]string) RunConfig {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return RunConfig{values: cp}
}

func (c RunConfig) lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the raw value for key, or def if absent.
func (c RunConfig) String(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// RequireString returns the raw value for key or ConfigInvalid if absent.
func (c RunConfig) RequireString(key string) (string, error) {
	v, ok := c.lookup(key)
	if !ok {
		return "", errors.Wrapf(ErrConfigInvalid, "missing required key %q", key)
	}
	return v, nil
}

// Int parses key as an integer, returning def if the key is absent.
func (c RunConfig) Int(key string, def int) (int, error) {
	v, ok := c.lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(ErrConfigInvalid, "key %q: %q is not an integer", key, v)
	}
	return n, nil
}

// Float parses key as a float64, returning def if the key is absent.
func (c RunConfig) Float(key string, def float64) (float64, error) {
	v, ok := c.lookup(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrConfigInvalid, "key %q: %q is not a number", key, v)
	}
	return f, nil
}

// Bool parses key as a boolean, returning def if the key is absent.
func (c RunConfig) Bool(key string, def bool) (bool, error) {
	v, ok := c.lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(ErrConfigInvalid, "key %q: %q is not a bool", key, v)
	}
	return b, nil
}

// StringList parses key as a comma separated list, returning def if the key
// is absent. Used for Tree/pool.
func (c RunConfig) StringList(key string, def []string) []string {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
