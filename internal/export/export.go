// Package export renders the catalog as an XLSX workbook for the admin dashboard.
package export

import (
	"fmt"
	"io"
	"strconv"

	"autek/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the written workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const productSheet = "Products"

var productHeaders = []string{
	"ID", "Title", "Category", "Rate", "Current price", "Old price", "Discount",
	"Description", "Full description", "Uzum link", "Image",
}

// Products writes one row per product below a bold header row. Ids are
// written as text since spreadsheets round long numbers.
func Products(w io.Writer, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(productSheet, "A1", &productHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastColumn, _ := excelize.ColumnNumberToName(len(productHeaders))
	if err := f.SetCellStyle(productSheet, "A1", lastColumn+"1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range products {
		row := []interface{}{
			strconv.FormatInt(p.ID, 10), p.Title, p.Category, p.Rate, p.Price.Current, p.Price.OldPrice, p.Price.Discount,
			p.Description, p.FullDescription, p.UzumLink, p.Image,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(productSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write product %d: %w", p.ID, err)
		}
	}

	if err := f.SetColWidth(productSheet, "B", "C", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetPanes(productSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
