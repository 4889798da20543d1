package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	coverSheet      = "Cover"
	contentsSheet   = "Contents"
	activitiesSheet = "Activities"

	dateLayout      = "January 02, 2006"
	timestampLayout = "January 02, 2006 15:04"
)

var contentsHeader = []string{"Type", "Title", "Date", "Page"}

var activitiesHeader = []string{"Page", "Title", "Type", "Date", "Last Modified", "Created", "Updated", "Report"}

// WriteWorkbook renders doc as an xlsx workbook with one sheet per section.
func WriteWorkbook(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", coverSheet); err != nil {
		return fmt.Errorf("rename cover sheet: %w", err)
	}
	if _, err := f.NewSheet(contentsSheet); err != nil {
		return fmt.Errorf("create contents sheet: %w", err)
	}
	if _, err := f.NewSheet(activitiesSheet); err != nil {
		return fmt.Errorf("create activities sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeCover(f, doc.Cover); err != nil {
		return err
	}
	if err := writeContents(f, doc.Contents, headerStyle); err != nil {
		return err
	}
	if err := writeActivities(f, doc.Details, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeCover(f *excelize.File, cover CoverPage) error {
	rows := [][]interface{}{
		{"E-Logbook Activity Report"},
		{"Name", cover.DisplayName},
		{"Period", formatPeriod(cover)},
	}
	if cover.TypeLabel != "" {
		rows = append(rows, []interface{}{"Activity Type", cover.TypeLabel})
	}
	rows = append(rows, []interface{}{"Total Activities", cover.TotalActivities})
	if !cover.GeneratedAt.IsZero() {
		rows = append(rows, []interface{}{"Generated", cover.GeneratedAt.Format(timestampLayout)})
	}

	for i, row := range rows {
		if err := setRow(f, coverSheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(coverSheet, "A", "B", 30)
}

func writeContents(f *excelize.File, contents ContentsPage, headerStyle int) error {
	if err := writeHeader(f, contentsSheet, contentsHeader, headerStyle); err != nil {
		return err
	}
	row := 2
	for _, group := range contents.Groups {
		for _, entry := range group.Entries {
			values := []interface{}{string(group.Type), entry.Title, entry.Date.Format(dateLayout), entry.PageNumber}
			if err := setRow(f, contentsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetColWidth(contentsSheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(contentsSheet, "B", "B", 50); err != nil {
		return err
	}
	return f.SetColWidth(contentsSheet, "C", "D", 20)
}

func writeActivities(f *excelize.File, details []DetailPage, headerStyle int) error {
	if err := writeHeader(f, activitiesSheet, activitiesHeader, headerStyle); err != nil {
		return err
	}
	for i, page := range details {
		values := []interface{}{
			page.PageNumber,
			page.Title,
			string(page.Type),
			page.ActivityDate.Format(dateLayout),
			page.LastModified.Format(timestampLayout),
			page.CreatedAt.Format(timestampLayout),
			page.UpdatedAt.Format(timestampLayout),
			page.Report,
		}
		if err := setRow(f, activitiesSheet, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(activitiesSheet, "B", "G", 22); err != nil {
		return err
	}
	return f.SetColWidth(activitiesSheet, "H", "H", 80)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func formatPeriod(cover CoverPage) string {
	start, end := "", ""
	if cover.StartDate != nil {
		start = cover.StartDate.Format(dateLayout)
	}
	if cover.EndDate != nil {
		end = cover.EndDate.Format(dateLayout)
	}
	switch {
	case start == "" && end == "":
		return "All dates"
	case end == "":
		return "From " + start
	case start == "":
		return "Until " + end
	default:
		return start + " - " + end
	}
}
