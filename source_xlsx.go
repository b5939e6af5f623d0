package datagrid

import (
	"context"
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
)

type xlsxSourceOptions struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet  string   `yaml:"sheet"`
	Header bool     `yaml:"header"`
	Fields []string `yaml:"fields"`
	Locale string   `yaml:"locale"`
}

// xlsxSource reads the rows of one worksheet.
type xlsxSource struct {
	arraySource
}

func newXLSXSource() *xlsxSource {
	return &xlsxSource{arraySource{name: string(XLSXSource)}}
}

func (s *xlsxSource) Bind(_ context.Context, source any, opts Options) error {
	o := xlsxSourceOptions{Header: true}
	if err := decodeOptions(s.name, opts, &o); err != nil {
		return err
	}
	var f *excelize.File
	switch v := source.(type) {
	case *excelize.File:
		f = v
	case string:
		file, err := excelize.OpenFile(v)
		if err != nil {
			return queryError(s.name, err)
		}
		f = file
	case io.Reader:
		file, err := excelize.OpenReader(v)
		if err != nil {
			return queryError(s.name, err)
		}
		f = file
	default:
		return fmt.Errorf("%w: xlsx source cannot bind %T", ErrBinding, source)
	}

	sheet := o.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(1)
	}
	if f.GetSheetIndex(sheet) == 0 {
		return fmt.Errorf("%w: xlsx workbook has no sheet %q", ErrBinding, sheet)
	}
	rows := f.GetRows(sheet)

	fields := o.Fields
	if o.Header && len(rows) > 0 && fields == nil {
		fields = rows[0]
	}
	return s.load(recordsFromRows(rows, o.Header, o.Fields), fields, o.Locale)
}
