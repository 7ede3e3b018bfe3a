package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	contractSvc *ContractService
}

func NewExportService(contractSvc *ContractService) *ExportService {
	return &ExportService{contractSvc: contractSvc}
}

// scheduleRow is one line of the recognition schedule, posted or outstanding
type scheduleRow struct {
	Kind          models.RecognitionKind
	Day           int
	Date          time.Time
	Amount        decimal.Decimal
	TransactionID string
	Posted        bool
}

func scheduleRows(status *RecognitionStatus) []scheduleRow {
	rows := make([]scheduleRow, 0, len(status.Entries))
	for _, e := range status.Entries {
		rows = append(rows, scheduleRow{
			Kind:          e.Kind,
			Day:           e.DayNumber,
			Date:          e.RecognitionDate,
			Amount:        e.Amount,
			TransactionID: e.TransactionID,
			Posted:        true,
		})
	}
	if status.Outstanding != nil {
		for _, d := range status.Outstanding.Revenue {
			rows = append(rows, scheduleRow{Kind: models.RecognitionKindRevenue, Day: d.Day, Date: d.Date, Amount: d.Amount})
		}
		for _, d := range status.Outstanding.VAT {
			rows = append(rows, scheduleRow{Kind: models.RecognitionKindVAT, Day: d.Day, Date: d.Date, Amount: d.Amount})
		}
	}
	return rows
}

func (r scheduleRow) status() string {
	if r.Posted {
		return "Posted"
	}
	return "Outstanding"
}

func exportFilename(contract *models.Contract, asOf time.Time, ext string) string {
	return fmt.Sprintf("recognition_%s_%s.%s", contract.ContractNumber, asOf.Format(dateLayout), ext)
}

// ExportCSV writes the recognition schedule of a contract as CSV
func (s *ExportService) ExportCSV(ctx context.Context, contractID string, asOf time.Time) ([]byte, string, error) {
	status, err := s.contractSvc.RecognitionStatus(ctx, contractID, asOf)
	if err != nil {
		return nil, "", err
	}
	contract := status.Contract

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Contract", "Kind", "Day", "Date", "Amount", "Currency", "Status", "Transaction"})
	for _, row := range scheduleRows(status) {
		_ = writer.Write([]string{
			contract.ContractNumber,
			string(row.Kind),
			strconv.Itoa(row.Day),
			row.Date.Format(dateLayout),
			row.Amount.StringFixed(2),
			contract.Currency,
			row.status(),
			row.TransactionID,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(contract, asOf, "csv"), nil
}

// ExportXLSX writes the recognition schedule of a contract as a spreadsheet
func (s *ExportService) ExportXLSX(ctx context.Context, contractID string, asOf time.Time) ([]byte, string, error) {
	status, err := s.contractSvc.RecognitionStatus(ctx, contractID, asOf)
	if err != nil {
		return nil, "", err
	}
	contract := status.Contract

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Recognition"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	// Contract header
	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Recognition schedule - Contract %s", contract.ContractNumber))
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	header := [][2]any{
		{"As of", asOf.Format(dateLayout)},
		{"Period", fmt.Sprintf("%s to %s", contract.StartDate.Format(dateLayout), contract.EndDate.Format(dateLayout))},
		{"Total amount", contract.TotalAmount.InexactFloat64()},
		{"Total days", contract.TotalDays},
		{"Daily rate", contract.DailyRate().InexactFloat64()},
		{"VAT inclusive", contract.VATInclusive()},
		{"Currency", contract.Currency},
		{"Recognized revenue", status.RecognizedRevenue.InexactFloat64()},
		{"Recognized VAT", status.RecognizedVAT.InexactFloat64()},
	}
	for i, kv := range header {
		row := i + 3
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), kv[1])
	}
	if status.Note != "" {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", len(header)+3), status.Note)
	}

	// Schedule table
	tableStart := len(header) + 5
	columns := []string{"Kind", "Day", "Date", "Amount", "Status", "Transaction"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableStart)
		_ = f.SetCellValue(sheet, cell, col)
	}
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", tableStart), fmt.Sprintf("F%d", tableStart), headerStyle)

	rows := scheduleRows(status)
	for i, r := range rows {
		n := tableStart + 1 + i
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", n), string(r.Kind))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", n), r.Day)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", n), r.Date.Format(dateLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", n), r.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", n), r.status())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", n), r.TransactionID)
	}
	if len(rows) > 0 {
		_ = f.SetCellStyle(sheet, fmt.Sprintf("D%d", tableStart+1), fmt.Sprintf("D%d", tableStart+len(rows)), moneyStyle)
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "F", "F", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename(contract, asOf, "xlsx"), nil
}
