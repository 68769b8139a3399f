package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/tradeflow/core/model"
)

const flowSheet = "Flows"

// WriteXLSX writes flows to a workbook with a single Flows sheet.
func WriteXLSX(w io.Writer, flows []model.Flow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", flowSheet); err != nil {
		return err
	}
	head := make([]any, len(Header))
	for i, h := range Header {
		head[i] = h
	}
	if err := f.SetSheetRow(flowSheet, "A1", &head); err != nil {
		return err
	}
	for i, r := range flows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Exporter, r.Importer, r.Year, r.Quantity}
		if err := f.SetSheetRow(flowSheet, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
