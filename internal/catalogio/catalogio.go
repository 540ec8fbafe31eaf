// Package catalogio reads and writes the catalog as an XLSX workbook.
package catalogio

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/thomas/kram-terminal-go/internal/shop"
)

// SheetName is the worksheet products are written to and preferably read from.
const SheetName = "Products"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of an exported sheet.
var Header = []string{"ID", "Name", "Price", "OldPrice", "ImageURL", "FreeShipping", "Smart", "Favorite"}

// ErrNoProductSheet is returned when the workbook has no usable sheet.
var ErrNoProductSheet = errors.New("workbook has no product sheet")

// Row is one product read from a workbook.
type Row struct {
	Line     int
	ID       string
	Draft    shop.ProductDraft
	Favorite bool
}

// RowError reports a row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Report summarizes an import.
type Report struct {
	Added  int
	Failed []RowError
}

// Export writes products to w as a single-sheet workbook.
func Export(w io.Writer, products []shop.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, p := range products {
		var oldPrice interface{} = ""
		if p.OldPrice.Valid {
			oldPrice = p.OldPrice.Decimal.String()
		}
		row := []interface{}{
			p.ID,
			p.Name,
			p.Price.String(),
			oldPrice,
			p.ImageURL,
			p.FreeShipping,
			p.Smart,
			p.Favorite,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 32); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "E", "E", 48); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Read parses the product rows of a workbook. Columns are located by header
// name, so they may appear in any order; the header row and blank rows are
// skipped. Row values are not validated here.
func Read(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(SheetName); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoProductSheet
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := mapColumns(rows[0])
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("%w: missing Name column", ErrNoProductSheet)
	}
	if _, ok := cols["price"]; !ok {
		return nil, fmt.Errorf("%w: missing Price column", ErrNoProductSheet)
	}

	var out []Row
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}

		out = append(out, Row{
			Line: i + 2,
			ID:   get("id"),
			Draft: shop.ProductDraft{
				Name:         get("name"),
				Price:        get("price"),
				OldPrice:     get("oldprice"),
				ImageURL:     get("imageurl"),
				FreeShipping: parseBool(get("freeshipping")),
				Smart:        parseBool(get("smart")),
			},
			Favorite: parseBool(get("favorite")),
		})
	}
	return out, nil
}

// Import reads a workbook and seeds every valid row into the catalog.
// Invalid rows are reported and skipped; the rest are still added.
func Import(r io.Reader, catalog *shop.Catalog) (Report, error) {
	rows, err := Read(r)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, row := range rows {
		if _, err := catalog.Seed(row.ID, row.Draft, row.Favorite); err != nil {
			report.Failed = append(report.Failed, RowError{Line: row.Line, Err: err})
			continue
		}
		report.Added++
	}
	return report, nil
}

// mapColumns maps normalized header names to column indexes.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
		if name == "" {
			continue
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	return cols
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "так", "+":
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
