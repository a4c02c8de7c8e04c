// Package export writes session reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/career-bot/internal/models"
)

// Sheet names used in the report workbook
const (
	SummarySheet = "Summary"
	OutputsSheet = "Outputs"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ratingFill maps a scorecard rating to the same palette as the score columns
var ratingFill = map[string]string{
	"Excellent":  "C6EFCE",
	"Good":       "FFEB9C",
	"Fair":       "FFC7CE",
	"Needs Work": "FF9999",
}

// WriteSessionReport writes the report workbook to w
func WriteSessionReport(w io.Writer, report models.SessionReport) error {
	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel report: %w", err)
	}
	return nil
}

// ExportToFile saves the report workbook at outputPath, adding the .xlsx
// extension when missing. It returns the path actually written.
func ExportToFile(report models.SessionReport, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f, err := buildWorkbook(report)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(outputPath); err != nil {
		// Some filesystems reject excelize's direct save; fall back to a buffered write.
		buf, writeErr := f.WriteToBuffer()
		if writeErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return outputPath, nil
}

func buildWorkbook(report models.SessionReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(OutputsSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := createSummarySheet(f, SummarySheet, report); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createOutputsSheet(f, OutputsSheet, report.Outputs); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create outputs sheet: %w", err)
	}

	return f, nil
}

// createSummarySheet lists the session details, job suggestions and scorecard
func createSummarySheet(f *excelize.File, sheetName string, report models.SessionReport) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 70)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	linkStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "0563C1", Underline: "single"}})
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	row := 1
	section := func(title string) {
		f.SetCellValue(sheetName, cell("A", row), title)
		f.SetCellStyle(sheetName, cell("A", row), cell("B", row), headerStyle)
		f.MergeCell(sheetName, cell("A", row), cell("B", row))
		row++
	}
	pair := func(label string, value any) {
		f.SetCellValue(sheetName, cell("A", row), label)
		f.SetCellStyle(sheetName, cell("A", row), cell("A", row), labelStyle)
		f.SetCellValue(sheetName, cell("B", row), value)
		row++
	}

	section("Career Bot Report")
	row++
	pair("Account:", report.Identifier)
	pair("Resume:", report.ResumeName)
	pair("Generated:", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	pair("Outputs:", len(report.Outputs))
	row++

	section("Job Suggestions")
	if len(report.Suggestions) == 0 {
		f.SetCellValue(sheetName, cell("A", row), "None yet")
		row++
	}
	for _, s := range report.Suggestions {
		f.SetCellValue(sheetName, cell("A", row), s.Role)
		f.SetCellValue(sheetName, cell("B", row), s.URL)
		f.SetCellHyperLink(sheetName, cell("B", row), s.URL, "External")
		f.SetCellStyle(sheetName, cell("B", row), cell("B", row), linkStyle)
		row++
	}
	row++

	section("Resume Scorecard")
	if report.Scorecard == nil {
		f.SetCellValue(sheetName, cell("A", row), "Not evaluated")
		return nil
	}

	card := report.Scorecard
	ratingStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{ratingFill[card.Rating()]}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return err
	}

	pair("Overall Score:", fmt.Sprintf("%.2f", card.OverallScore))
	f.SetCellValue(sheetName, cell("A", row), "Rating:")
	f.SetCellStyle(sheetName, cell("A", row), cell("A", row), labelStyle)
	f.SetCellValue(sheetName, cell("B", row), card.Rating())
	f.SetCellStyle(sheetName, cell("B", row), cell("B", row), ratingStyle)
	row++
	pair("Summary:", card.Summary)

	for _, group := range []struct {
		label string
		items []string
	}{
		{"Strengths:", card.Strengths},
		{"Weaknesses:", card.Weaknesses},
		{"Suggestions:", card.Suggestions},
	} {
		var text string
		if len(group.items) > 0 {
			text = "- " + strings.Join(group.items, "\n- ")
		}
		pair(group.label, text)
		f.SetCellStyle(sheetName, cell("B", row-1), cell("B", row-1), wrapStyle)
	}

	return nil
}

// createOutputsSheet writes one row per generated feature output
func createOutputsSheet(f *excelize.File, sheetName string, outputs []models.FeatureOutput) error {
	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 100)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	headers := []string{"Feature", "Generated", "Text"}
	for col, header := range headers {
		c := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, c, header)
		f.SetCellStyle(sheetName, c, c, headerStyle)
	}

	for i, out := range outputs {
		row := i + 2
		f.SetCellValue(sheetName, cell("A", row), out.Feature.Title())
		f.SetCellValue(sheetName, cell("B", row), out.GeneratedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, cell("C", row), out.Text)
		f.SetCellStyle(sheetName, cell("A", row), cell("C", row), wrapStyle)
		f.SetRowHeight(sheetName, row, 120)
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
