package datagrid

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strings"
)

type csvOptions struct {
	Delimiter string `yaml:"delimiter"`
	Enclosure string `yaml:"enclosure"`
	LineBreak string `yaml:"line_break"`
	Header    bool   `yaml:"header"`
	QuoteAll  bool   `yaml:"quote_all"`
	Filename  string `yaml:"filename"`
}

// csvRenderer writes delimited text. With the default enclosure and line
// break it goes through encoding/csv, otherwise through csvLine.
type csvRenderer struct {
	rendererBase
	opts      csvOptions
	delimiter rune
}

func newCSVRenderer() *csvRenderer {
	return &csvRenderer{
		rendererBase: rendererBase{name: string(CSVRenderer)},
		opts:         csvOptions{Delimiter: ",", Enclosure: `"`, LineBreak: "\n", Header: true},
		delimiter:    ',',
	}
}

func (r *csvRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	d, err := singleRune(r.name, "delimiter", o.Delimiter)
	if err != nil {
		return err
	}
	if len(o.Enclosure) > 1 {
		return fmt.Errorf("%w: %s option \"enclosure\" must be at most one character, got %q", ErrValidation, r.name, o.Enclosure)
	}
	if o.LineBreak == "" {
		return fmt.Errorf("%w: %s option \"line_break\" is empty", ErrValidation, r.name)
	}
	r.opts, r.delimiter = o, d
	r.built = false
	return nil
}

func (r *csvRenderer) Build() error {
	return r.build(func(w io.Writer) error {
		return r.Stream(w, r.columns, recordSeq(r.records))
	})
}

func (r *csvRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	return writeOutput(w, r.opts.Filename, r.out)
}

func (r *csvRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

// Stream writes the header and then one line per record as it arrives.
func (r *csvRenderer) Stream(w io.Writer, columns []*Column, seq iter.Seq2[Record, error]) error {
	write := r.lineWriter(w)
	if r.opts.Header {
		labels := make([]string, len(columns))
		for i, c := range columns {
			labels[i] = c.Label()
		}
		if err := write(labels); err != nil {
			return err
		}
	}
	row := 0
	for rec, err := range seq {
		if err != nil {
			return err
		}
		if err := write(cells(columns, rec, row)); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (r *csvRenderer) standard() bool {
	return r.opts.Enclosure == `"` && !r.opts.QuoteAll &&
		(r.opts.LineBreak == "\n" || r.opts.LineBreak == "\r\n")
}

func (r *csvRenderer) lineWriter(w io.Writer) func([]string) error {
	if r.standard() {
		return func(fields []string) error {
			return writeCSVRow(w, fields, r.delimiter, r.opts.LineBreak == "\r\n")
		}
	}
	return func(fields []string) error {
		_, err := io.WriteString(w, csvLine(fields, string(r.delimiter), r.opts.Enclosure, r.opts.QuoteAll)+r.opts.LineBreak)
		return err
	}
}

func writeCSVRow(w io.Writer, fields []string, delimiter rune, crlf bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	cw.UseCRLF = crlf
	if err := cw.Write(fields); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// csvLine joins fields, enclosing those that need it. An empty enclosure
// writes fields verbatim.
func csvLine(fields []string, delimiter, enclosure string, quoteAll bool) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		switch {
		case enclosure == "":
			out[i] = f
		case quoteAll || strings.Contains(f, delimiter) || strings.Contains(f, enclosure) ||
			strings.ContainsAny(f, "\r\n") || strings.HasPrefix(f, " "):
			out[i] = enclosure + strings.ReplaceAll(f, enclosure, enclosure+enclosure) + enclosure
		default:
			out[i] = f
		}
	}
	return strings.Join(out, delimiter)
}
