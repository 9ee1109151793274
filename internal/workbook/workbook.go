// Package workbook reads and writes the XLSX files exchanged with users:
// the comparison workbook, the converted CMM report and the offset summary.
package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/cmmcal/internal/config"
	"github.com/dbsmedya/cmmcal/internal/logger"
	"github.com/dbsmedya/cmmcal/internal/offset"
	"github.com/dbsmedya/cmmcal/internal/types"
)

// Reader gives table access to an open workbook.
type Reader struct {
	file   *excelize.File
	logger *logger.Logger
}

// Open parses an XLSX workbook from r. The caller must Close it.
func Open(r io.Reader, log *logger.Logger) (*Reader, error) {
	if log == nil {
		log = logger.NewNop()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Reader{file: f, logger: log}, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Sheets lists the sheet names in workbook order.
func (r *Reader) Sheets() []string {
	return r.file.GetSheetList()
}

// HasSheet reports whether a sheet with that exact name exists.
func (r *Reader) HasSheet(name string) bool {
	for _, s := range r.file.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// Table reads a sheet as a Table whose first row is the header. Cells are read
// raw so number formats do not truncate measurements.
func (r *Reader) Table(sheet string) (*types.Table, error) {
	if !r.HasSheet(sheet) {
		return nil, &types.SchemaError{Problems: []string{fmt.Sprintf("sheet %q not found", sheet)}}
	}
	rows, err := r.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	t := types.FromRows(sheet, rows)
	r.logger.WithSheet(sheet).Debugw("Sheet loaded", "columns", len(t.Columns), "rows", t.Len())
	return t, nil
}

// Comparison loads the four comparison sheets named in cfg. Every missing
// sheet is reported in a single *types.SchemaError.
func (r *Reader) Comparison(cfg *config.CompareConfig) (*offset.Input, error) {
	se := &types.SchemaError{}
	for _, name := range cfg.Sheets() {
		if !r.HasSheet(name) {
			se.Add("sheet %q not found", name)
		}
	}
	if err := se.Err(); err != nil {
		return nil, err
	}

	tables := make([]*types.Table, 0, 4)
	for _, name := range cfg.Sheets() {
		t, err := r.Table(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return &offset.Input{
		Perceptron:  tables[0],
		CMM:         tables[1],
		JSNMapping:  tables[2],
		AxisMapping: tables[3],
	}, nil
}

// ReadComparison opens a comparison workbook and loads its four sheets.
func ReadComparison(r io.Reader, cfg *config.CompareConfig, log *logger.Logger) (*offset.Input, error) {
	wb, err := Open(r, log)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	return wb.Comparison(cfg)
}
