package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/drjagan/e-logbook/internal/domain"
)

func activity(id string, t domain.ActivityType, day int) domain.Activity {
	date := time.Date(2024, time.April, day, 10, 0, 0, 0, time.UTC)
	return domain.Activity{
		ID:           id,
		OwnerID:      "owner-1",
		Title:        "Title " + id,
		Type:         t,
		Report:       "<p>Report for " + id + "</p>",
		ActivityDate: date,
		LastModified: date.Add(time.Hour),
		CreatedAt:    date,
		UpdatedAt:    date.Add(time.Hour),
	}
}

func TestComposeGroupsByFirstSeenTypeWithCumulativePages(t *testing.T) {
	a1 := activity("a1", domain.TypeProcedures, 1)
	a2 := activity("a2", domain.TypeTeaching, 2)
	a3 := activity("a3", domain.TypeProcedures, 3)

	doc, err := Compose(Request{
		Activities:  []domain.Activity{a1, a2, a3},
		DateRange:   DateRange{Start: "2024-04-01", End: "2024-04-30"},
		DisplayName: "Dr. Resident",
	})
	require.NoError(t, err)

	require.Len(t, doc.Details, 3)
	order := []string{doc.Details[0].ActivityID, doc.Details[1].ActivityID, doc.Details[2].ActivityID}
	require.Equal(t, []string{"a1", "a3", "a2"}, order)
	require.Equal(t, 3, doc.Details[0].PageNumber)
	require.Equal(t, 4, doc.Details[1].PageNumber)
	require.Equal(t, 5, doc.Details[2].PageNumber)

	require.Len(t, doc.Contents.Groups, 2)
	require.Equal(t, domain.TypeProcedures, doc.Contents.Groups[0].Type)
	require.Equal(t, domain.TypeTeaching, doc.Contents.Groups[1].Type)

	tocPages := map[string]int{}
	for _, group := range doc.Contents.Groups {
		for _, entry := range group.Entries {
			tocPages[entry.ActivityID] = entry.PageNumber
		}
	}
	require.Equal(t, map[string]int{"a1": 3, "a3": 4, "a2": 5}, tocPages)
	for _, detail := range doc.Details {
		require.Equal(t, tocPages[detail.ActivityID], detail.PageNumber)
	}

	require.Equal(t, 5, doc.PageCount())
	pages := doc.Pages()
	require.Len(t, pages, 5)
	require.Equal(t, KindCover, pages[0].Kind)
	require.Equal(t, KindContents, pages[1].Kind)
	for i, page := range pages {
		require.Equal(t, i+1, page.Number)
	}
}

func TestComposePageNumbersStayCumulativeAcrossManyGroups(t *testing.T) {
	input := []domain.Activity{
		activity("x1", domain.TypeResearch, 1),
		activity("y1", domain.TypeOutreach, 2),
		activity("z1", domain.TypeLaboratory, 3),
		activity("y2", domain.TypeOutreach, 4),
		activity("x2", domain.TypeResearch, 5),
		activity("z2", domain.TypeLaboratory, 6),
	}
	doc, err := Compose(Request{Activities: input})
	require.NoError(t, err)

	want := []string{"x1", "x2", "y1", "y2", "z1", "z2"}
	for i, detail := range doc.Details {
		require.Equal(t, want[i], detail.ActivityID)
		require.Equal(t, StartPage+i, detail.PageNumber)
	}
	last := doc.Contents.Groups[2].Entries[1]
	require.Equal(t, "z2", last.ActivityID)
	require.Equal(t, 8, last.PageNumber)
}

func TestComposeEmptyActivities(t *testing.T) {
	doc, err := Compose(Request{DisplayName: "Dr. Resident"})
	require.NoError(t, err)
	require.Empty(t, doc.Details)
	require.Empty(t, doc.Contents.Groups)
	require.Equal(t, 0, doc.Cover.TotalActivities)
	require.Equal(t, 2, doc.PageCount())
	require.Len(t, doc.Pages(), 2)
}

func TestComposeCover(t *testing.T) {
	generated := time.Date(2024, time.May, 1, 8, 30, 0, 0, time.UTC)
	doc, err := Compose(Request{
		Activities:  []domain.Activity{activity("a1", domain.TypeSeminars, 4)},
		DateRange:   DateRange{Start: "2024-04-01T15:04:05Z", End: "2024-04-30"},
		DisplayName: "Dr. Resident",
		TypeLabel:   "Seminars",
		GeneratedAt: generated,
	})
	require.NoError(t, err)

	cover := doc.Cover
	require.Equal(t, "Dr. Resident", cover.DisplayName)
	require.Equal(t, 1, cover.TotalActivities)
	require.Equal(t, "Seminars", cover.TypeLabel)
	require.Equal(t, generated, cover.GeneratedAt)
	require.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), *cover.StartDate)
	require.Equal(t, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), *cover.EndDate)
}

func TestComposeOptionalFieldsNeverFail(t *testing.T) {
	doc, err := Compose(Request{
		Activities: []domain.Activity{activity("a1", domain.TypeSeminars, 4)},
		TypeLabel:  "All",
	})
	require.NoError(t, err)
	require.Nil(t, doc.Cover.StartDate)
	require.Nil(t, doc.Cover.EndDate)
	require.Empty(t, doc.Cover.TypeLabel)
}

func TestComposeRejectsMalformedDates(t *testing.T) {
	_, err := Compose(Request{DateRange: DateRange{Start: "yesterday"}})
	var formatErr *domain.FormatError
	require.True(t, errors.As(err, &formatErr))
	require.Equal(t, "dateRange.start", formatErr.Field)

	_, err = Compose(Request{DateRange: DateRange{Start: "2024-01-01", End: "2024-13-45"}})
	require.True(t, errors.As(err, &formatErr))
	require.Equal(t, "dateRange.end", formatErr.Field)

	broken := activity("a2", domain.TypeTeaching, 2)
	broken.ActivityDate = time.Time{}
	_, err = Compose(Request{Activities: []domain.Activity{activity("a1", domain.TypeTeaching, 1), broken}})
	require.True(t, errors.As(err, &formatErr))
	require.Equal(t, "activities[1].activityDate", formatErr.Field)
}

func TestComposeSanitizesReports(t *testing.T) {
	a := activity("a1", domain.TypeProcedures, 1)
	a.Report = "<b>Hi&nbsp;there</b> &amp; co"
	doc, err := Compose(Request{Activities: []domain.Activity{a}})
	require.NoError(t, err)
	require.Equal(t, "Hi there & co", doc.Details[0].Report)
	require.Equal(t, a.LastModified, doc.Details[0].LastModified)
	require.Equal(t, a.CreatedAt, doc.Details[0].CreatedAt)
	require.Equal(t, a.UpdatedAt, doc.Details[0].UpdatedAt)
}

func TestWriteWorkbook(t *testing.T) {
	doc, err := Compose(Request{
		Activities: []domain.Activity{
			activity("a1", domain.TypeProcedures, 1),
			activity("a2", domain.TypeTeaching, 2),
			activity("a3", domain.TypeProcedures, 3),
		},
		DateRange:   DateRange{Start: "2024-04-01", End: "2024-04-30"},
		DisplayName: "Dr. Resident",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(doc, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{coverSheet, contentsSheet, activitiesSheet}, f.GetSheetList())

	name, err := f.GetCellValue(coverSheet, "B2")
	require.NoError(t, err)
	require.Equal(t, "Dr. Resident", name)

	rows, err := f.GetRows(contentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, contentsHeader, rows[0])
	require.Equal(t, []string{"Procedures", "Title a3", "April 03, 2024", "4"}, rows[2])

	report, err := f.GetCellValue(activitiesSheet, "H4")
	require.NoError(t, err)
	require.Equal(t, "Report for a2", report)
}
