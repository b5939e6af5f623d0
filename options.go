package datagrid

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Options holds driver options by name. Each driver decodes the map into
// its own typed option set, over its defaults. Unknown names are an
// error.
type Options map[string]any

// Merge returns a new map with the entries of o overridden by other.
func (o Options) Merge(other Options) Options {
	out := make(Options, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// decodeOptions decodes opts into dst, which must already carry the
// driver defaults.
func decodeOptions(driver string, opts Options, dst any) error {
	if len(opts) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(opts))
	if err != nil {
		return fmt.Errorf("%w: %s options: %w", ErrValidation, driver, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s options: %w", ErrValidation, driver, err)
	}
	return nil
}

// singleRune validates a one-character option such as a delimiter.
func singleRune(driver, name, value string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%w: %s option %q must be a single character, got %q", ErrValidation, driver, name, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
