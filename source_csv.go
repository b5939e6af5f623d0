package datagrid

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvSourceOptions struct {
	Delimiter string   `yaml:"delimiter"`
	Header    bool     `yaml:"header"`
	Fields    []string `yaml:"fields"`
	SkipEmpty bool     `yaml:"skip_empty"`
	Comment   string   `yaml:"comment"`
	Locale    string   `yaml:"locale"`
}

// csvSource reads CSV from a file, a string, bytes or a reader.
type csvSource struct {
	arraySource
}

func newCSVSource() *csvSource {
	return &csvSource{arraySource{name: string(CSVSource)}}
}

func (s *csvSource) Bind(_ context.Context, source any, opts Options) error {
	o := csvSourceOptions{Delimiter: ",", Header: true, SkipEmpty: true}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	r, closer, err := openText(s.name, source)
	if err != nil {
		return err
	}
	defer closer()

	cr := csv.NewReader(r)
	if cr.Comma, err = singleRune(s.name, "delimiter", o.Delimiter); err != nil {
		return err
	}
	if o.Comment != "" {
		if cr.Comment, err = singleRune(s.name, "comment", o.Comment); err != nil {
			return err
		}
	}
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return queryError(s.name, err)
		}
		if o.SkipEmpty && isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	fields := o.Fields
	if o.Header && len(rows) > 0 && fields == nil {
		fields = rows[0]
	}
	return s.load(recordsFromRows(rows, o.Header, o.Fields), fields, o.Locale)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// openText resolves a textual source: an existing file path, inline
// text, bytes or a reader. The returned func releases any opened file.
func openText(driver string, source any) (io.Reader, func(), error) {
	noop := func() {}
	switch v := source.(type) {
	case io.Reader:
		return v, noop, nil
	case []byte:
		return bytes.NewReader(v), noop, nil
	case string:
		if !strings.ContainsAny(v, "\n<") {
			if f, err := os.Open(v); err == nil {
				return f, func() { _ = f.Close() }, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, noop, queryError(driver, err)
			}
		}
		return strings.NewReader(v), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: %s source cannot bind %T", ErrBinding, driver, source)
	}
}
