// Package export renders request timelines as downloadable spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Sheet layout
const (
	SheetName = "İşlem Geçmişi"

	headerRow  = 6
	dataRowMin = 7

	colDate  = "A"
	colTitle = "B"
	colNote  = "C"
	colActor = "D"

	dateLayout = "02.01.2006 15:04"
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var kindNames = map[workflow.Kind]string{
	workflow.KindCreative:  "Kreatif",
	workflow.KindIncentive: "Teşvik",
	workflow.KindCampaign:  "Kampanya",
}

// TimelineWorkbook writes a request summary followed by its timeline, oldest first
type TimelineWorkbook struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewTimelineWorkbook creates an exporter printing dates in loc (UTC when nil)
func NewTimelineWorkbook(loc *time.Location, logger *zap.Logger) *TimelineWorkbook {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineWorkbook{loc: loc, logger: logger}
}

// ContentType implements port.TimelineExporter
func (e *TimelineWorkbook) ContentType() string {
	return xlsxMIME
}

// Export implements port.TimelineExporter
func (e *TimelineWorkbook) Export(w io.Writer, r *entity.Request, entries []timeline.Entry) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := e.fillSummary(file, r); err != nil {
		return fmt.Errorf("failed to fill summary: %w", err)
	}
	if err := e.fillEntries(file, entries); err != nil {
		return fmt.Errorf("failed to fill timeline: %w", err)
	}

	if err := file.SetColWidth(SheetName, colDate, colDate, 18); err != nil {
		return err
	}
	if err := file.SetColWidth(SheetName, colTitle, colTitle, 32); err != nil {
		return err
	}
	if err := file.SetColWidth(SheetName, colNote, colNote, 60); err != nil {
		return err
	}
	if err := file.SetColWidth(SheetName, colActor, colActor, 20); err != nil {
		return err
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Timeline exported",
		zap.String("request_id", r.ID),
		zap.String("kind", string(r.Kind)),
		zap.Int("entries", len(entries)))
	return nil
}

// fillSummary writes rows 1-4 with request metadata
func (e *TimelineWorkbook) fillSummary(file *excelize.File, r *entity.Request) error {
	rows := [][2]string{
		{"Talep", r.Title},
		{"Tür", kindNames[r.Kind]},
		{"Durum", timeline.WaitingLabel(r.Kind, r.Status)},
		{"Bayi", r.DealerID},
	}
	for i, row := range rows {
		if err := file.SetSheetRow(SheetName, fmt.Sprintf("A%d", i+1), &[]interface{}{row[0], row[1]}); err != nil {
			return err
		}
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return file.SetCellStyle(SheetName, "A1", fmt.Sprintf("A%d", len(rows)), bold)
}

// fillEntries writes the header row and one row per entry from row 7 down
func (e *TimelineWorkbook) fillEntries(file *excelize.File, entries []timeline.Entry) error {
	header := []interface{}{"Tarih", "İşlem", "Not", "Kişi"}
	if err := file.SetSheetRow(SheetName, fmt.Sprintf("%s%d", colDate, headerRow), &header); err != nil {
		return err
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(SheetName, fmt.Sprintf("%s%d", colDate, headerRow), fmt.Sprintf("%s%d", colActor, headerRow), style); err != nil {
		return err
	}

	wrap, err := file.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	for i, entry := range entries {
		row := dataRowMin + i
		values := []interface{}{e.dateOf(entry), entry.Title, entry.Note, entry.ActorName}
		if err := file.SetSheetRow(SheetName, fmt.Sprintf("%s%d", colDate, row), &values); err != nil {
			return err
		}
		if err := file.SetCellStyle(SheetName, fmt.Sprintf("%s%d", colNote, row), fmt.Sprintf("%s%d", colNote, row), wrap); err != nil {
			return err
		}
	}
	return nil
}

func (e *TimelineWorkbook) dateOf(entry timeline.Entry) string {
	if entry.OccurredAt.IsZero() {
		return entry.DateText
	}
	return entry.OccurredAt.In(e.loc).Format(dateLayout)
}

// Verify interface compliance
var _ port.TimelineExporter = (*TimelineWorkbook)(nil)
