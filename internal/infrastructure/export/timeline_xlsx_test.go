package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

func TestTimelineWorkbook_Export(t *testing.T) {
	istanbul := time.FixedZone("Europe/Istanbul", 3*60*60)
	exporter := NewTimelineWorkbook(istanbul, zap.NewNop())

	req := &entity.Request{
		ID:       "c-1",
		DealerID: "dealer-1",
		Kind:     workflow.KindCampaign,
		Status:   workflow.StatusApproved,
		Title:    "Yaz kampanyası",
	}
	entries := []timeline.Entry{
		{Title: "Talep oluşturuldu", OccurredAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), Type: timeline.TypeCreated, ActorName: "Bayi A"},
		{Title: "Onaylandı", DateText: "32.13.2024", Note: "Bütçe uygun", Type: timeline.TypeApproved},
	}

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, req, entries))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{SheetName}, file.GetSheetList())

	cell := func(axis string) string {
		v, err := file.GetCellValue(SheetName, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Yaz kampanyası", cell("B1"))
	assert.Equal(t, "Kampanya", cell("B2"))
	assert.Equal(t, "Yayına alınması bekleniyor", cell("B3"))
	assert.Equal(t, "dealer-1", cell("B4"))

	assert.Equal(t, "Tarih", cell("A6"))
	assert.Equal(t, "Kişi", cell("D6"))

	assert.Equal(t, "01.06.2025 12:00", cell("A7"), "dates are printed in the portal zone")
	assert.Equal(t, "Talep oluşturuldu", cell("B7"))
	assert.Equal(t, "Bayi A", cell("D7"))

	assert.Equal(t, "32.13.2024", cell("A8"), "unparsed legacy dates keep their text")
	assert.Equal(t, "Bütçe uygun", cell("C8"))
}

func TestTimelineWorkbook_EmptyTimeline(t *testing.T) {
	exporter := NewTimelineWorkbook(nil, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, &entity.Request{ID: "i-1", Kind: workflow.KindIncentive, Status: workflow.StatusDraft}, nil))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, headerRow)
	assert.Equal(t, xlsxMIME, exporter.ContentType())
}
