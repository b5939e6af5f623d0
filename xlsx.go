package datagrid

import (
	"fmt"
	"io"
	"strconv"

	"github.com/360EntSecGroup-Skylar/excelize"
)

type xlsxOptions struct {
	Sheet    string `yaml:"sheet"`
	Header   bool   `yaml:"header"`
	Filename string `yaml:"filename"`
}

// xlsxRenderer writes a workbook. It has no deferred form: Render writes
// the binary stream, and Fill writes cells into a caller's workbook.
type xlsxRenderer struct {
	rendererBase
	opts      xlsxOptions
	container *excelize.File
	file      *excelize.File
}

func newXLSXRenderer() *xlsxRenderer {
	return &xlsxRenderer{
		rendererBase: rendererBase{name: string(XLSXRenderer)},
		opts:         xlsxOptions{Sheet: "Sheet1", Header: true},
	}
}

func (r *xlsxRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	if o.Sheet == "" {
		return fmt.Errorf("%w: %s option \"sheet\" is empty", ErrValidation, r.name)
	}
	r.opts = o
	r.built = false
	return nil
}

// SetContainer takes the *excelize.File to fill. Nil removes it.
func (r *xlsxRenderer) SetContainer(container any) error {
	switch f := container.(type) {
	case nil:
		r.container = nil
	case *excelize.File:
		r.container = f
	default:
		return fmt.Errorf("%w: %s container must be an *excelize.File, got %T", ErrBinding, r.name, container)
	}
	r.built = false
	return nil
}

func (r *xlsxRenderer) Build() error {
	if r.built {
		return nil
	}
	f := r.container
	if f == nil {
		f = excelize.NewFile()
		if r.opts.Sheet != "Sheet1" {
			f.SetSheetName("Sheet1", r.opts.Sheet)
		}
	} else if f.GetSheetIndex(r.opts.Sheet) == 0 {
		f.NewSheet(r.opts.Sheet)
	}

	line := 1
	if r.opts.Header {
		for i, label := range r.labels() {
			f.SetCellValue(r.opts.Sheet, cellName(i, line), label)
		}
		line++
	}
	for i, rec := range r.records {
		for j, c := range r.columns {
			f.SetCellValue(r.opts.Sheet, cellName(j, line), cellValue(c, rec, i))
		}
		line++
	}
	r.file = f
	r.built = true
	return nil
}

func (r *xlsxRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	if r.opts.Filename != "" {
		return r.file.SaveAs(r.opts.Filename)
	}
	return r.file.Write(w)
}

// cellName returns the A1 reference of a zero-based column and a
// one-based row.
func cellName(col, row int) string {
	return excelize.ToAlphaString(col) + strconv.Itoa(row)
}
