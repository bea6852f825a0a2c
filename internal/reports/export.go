// Package reports builds the admin xlsx exports.
package reports

import (
	"github.com/xuri/excelize/v2"

	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
)

// AdjustmentsXLSX renders the adjustment log, one audit row per line.
// The caller owns closing the returned file.
func AdjustmentsXLSX(adjs []stock.Adjustment) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"id",
		"engineer_id",
		"part_id",
		"previous_quantity",
		"new_quantity",
		"delta",
		"reason",
		"timestamp",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, a := range adjs {
		excelRow := []interface{}{
			a.ID,
			a.EngineerID,
			a.PartID,
			a.PreviousQuantity,
			a.NewQuantity,
			a.Delta,
			a.Reason,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			_ = f.Close()
			return nil, err
		}
		row++
	}
	return f, nil
}

// UsageXLSX renders usage reports flattened to one line per item.
func UsageXLSX(reps []usage.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"report_id",
		"engineer_id",
		"so_number",
		"description",
		"part_id",
		"part_name",
		"quantity",
		"date",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, rep := range reps {
		for _, it := range rep.Items {
			excelRow := []interface{}{
				rep.ID.String(),
				rep.EngineerID,
				rep.SONumber,
				rep.Description,
				it.PartID,
				it.PartName,
				it.Quantity,
				rep.ReportDate.Format("2006-01-02"),
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
				_ = f.Close()
				return nil, err
			}
			row++
		}
	}
	return f, nil
}
