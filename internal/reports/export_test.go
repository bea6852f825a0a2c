package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
)

func TestAdjustmentsXLSX(t *testing.T) {
	when := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)
	f, err := AdjustmentsXLSX([]stock.Adjustment{
		{ID: 1, EngineerID: "eng-1", PartID: 3, PreviousQuantity: 2, NewQuantity: 5, Delta: 3, Reason: "delivery receipt confirmed", CreatedAt: when},
	})
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	got, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "id", got)

	got, err = f.GetCellValue(sheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	got, err = f.GetCellValue(sheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "5", got)
	got, err = f.GetCellValue(sheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "delivery receipt confirmed", got)
}

func TestUsageXLSXFlattensItems(t *testing.T) {
	rep := usage.Report{
		ID:         uuid.New(),
		EngineerID: "eng-1",
		SONumber:   "20260217",
		ReportDate: time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
		Items: []usage.Item{
			{PartID: 1, PartName: "Connector Clip", Quantity: 2},
			{PartID: 2, PartName: "LoopSheet A4", Quantity: 10},
		},
	}
	f, err := UsageXLSX([]usage.Report{rep})
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	got, err := f.GetCellValue(sheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "Connector Clip", got)
	got, err = f.GetCellValue(sheet, "F3")
	require.NoError(t, err)
	assert.Equal(t, "LoopSheet A4", got)
	got, err = f.GetCellValue(sheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "20260217", got)
}
