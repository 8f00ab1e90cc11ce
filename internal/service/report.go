package service

import (
	"context"
	"fmt"
	"time"

	"pagos-sync/internal/clients"
	"pagos-sync/internal/domain"
	"pagos-sync/internal/repository"

	"github.com/xuri/excelize/v2"
)

var reportHeaders = []string{
	"Concepto ID",
	"Nombre Concepto",
	"Folio Recaudación",
	"Fecha Pago",
	"Cuenta Predial",
	"Año Inicial",
	"Año Final",
	"Nombre Contribuyente",
	"Monto",
	"Descuento",
	"Total",
}

var reportColumnWidths = []float64{12, 50, 20, 20, 15, 12, 12, 40, 15, 15, 15}

// ReportService renders the assembled payment-request records as an Excel
// workbook and stores the artifact.
type ReportService struct {
	requests RequestLister
	storage  *clients.StorageClient
	s3       *clients.S3Client
}

func NewReportService(requests RequestLister, storage *clients.StorageClient, s3 *clients.S3Client) *ReportService {
	return &ReportService{requests: requests, storage: storage, s3: s3}
}

// Generate builds the workbook for the given filter, saves it and returns the
// artifact URL (S3 key when S3 is configured, local file URL otherwise).
func (s *ReportService) Generate(ctx context.Context, f repository.RequestsFilter) (string, error) {
	records, err := s.requests.List(ctx, f)
	if err != nil {
		return "", err
	}

	data, err := s.render(records, f)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("reporte_pagos_%s.xlsx", time.Now().Format("20060102_150405"))

	if s.s3 != nil {
		key, err := s.s3.Upload(ctx, fileName, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err != nil {
			return "", fmt.Errorf("upload report: %w", err)
		}
		return key, nil
	}
	if s.storage == nil {
		return "", fmt.Errorf("no report storage configured")
	}
	saved, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return s.storage.GetURL(saved), nil
}

func (s *ReportService) render(records []domain.PaymentRequest, filter repository.RequestsFilter) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Reporte de Pagos"
	f.SetSheetName(f.GetSheetName(0), sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	currencyStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(`$#,##0.00`)})
	totalsStyle, _ := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
		CustomNumFmt: strPtr(`$#,##0.00`),
	})

	_ = f.SetCellValue(sheet, "A1", "REPORTE DE IDENTIFICACIÓN DE PAGOS")
	_ = f.MergeCell(sheet, "A1", "K1")
	_ = f.SetCellStyle(sheet, "A1", "K1", titleStyle)

	row := 3
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Filtros Aplicados:")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
	row++

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Fecha Inicial:")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), formatFilterDate(filter.PaymentDateFrom))
	row++

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Fecha Final:")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), formatFilterDate(filter.PaymentDateTo))
	row++

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total de Registros:")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), len(records))
	_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), boldStyle)
	row += 2

	headerRow := row
	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheet, cell, header)
	}
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("K%d", headerRow), headerStyle)

	row++
	dataStart := row
	for _, rec := range records {
		values := []any{
			rec.ConceptID,
			rec.ConceptName,
			rec.Folio,
			formatPaymentDate(rec.PaymentDate),
			rec.Account,
			rec.YearFrom,
			rec.YearTo,
			rec.PayerName,
			rec.Amount.InexactFloat64(),
			rec.Discount.InexactFloat64(),
			rec.Total.InexactFloat64(),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	if len(records) > 0 {
		_ = f.SetCellStyle(sheet, fmt.Sprintf("I%d", dataStart), fmt.Sprintf("K%d", row-1), currencyStyle)

		totalsRow := row + 1
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", totalsRow), "TOTALES:")
		for _, col := range []string{"I", "J", "K"} {
			_ = f.SetCellFormula(sheet, fmt.Sprintf("%s%d", col, totalsRow),
				fmt.Sprintf("SUM(%s%d:%s%d)", col, dataStart, col, row-1))
		}
		_ = f.SetCellStyle(sheet, fmt.Sprintf("H%d", totalsRow), fmt.Sprintf("K%d", totalsRow), totalsStyle)
	}

	for i, width := range reportColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFilterDate(t *time.Time) string {
	if t == nil {
		return "Sin filtro"
	}
	return t.Format("02/01/2006")
}

func formatPaymentDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006 15:04:05")
}

func strPtr(s string) *string { return &s }
