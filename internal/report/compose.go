// Package report composes a logbook export: a cover page, a table of contents
// grouped by activity type, and one detail page per activity.
//
// Composition is a pure function of its Request. Page 1 is the cover, page 2
// the table of contents, and detail pages are numbered from StartPage in the
// same order the table of contents lists them.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/drjagan/e-logbook/internal/domain"
)

const (
	// CoverPageNumber is the page number of the cover.
	CoverPageNumber = 1
	// ContentsPageNumber is the page number of the table of contents.
	ContentsPageNumber = 2
	// StartPage is the page number of the first detail page.
	StartPage = 3
)

// allTypesLabel is the label a caller sends when no type filter is applied.
const allTypesLabel = "All"

// DateRange holds the requested period as received from the caller.
// Either bound may be empty.
type DateRange struct {
	Start string
	End   string
}

// Request describes one export.
type Request struct {
	Activities  []domain.Activity
	DateRange   DateRange
	DisplayName string
	TypeLabel   string
	GeneratedAt time.Time
}

// CoverPage summarizes the export.
type CoverPage struct {
	DisplayName     string
	StartDate       *time.Time
	EndDate         *time.Time
	TypeLabel       string
	TotalActivities int
	GeneratedAt     time.Time
}

// ContentsEntry is one line of the table of contents.
type ContentsEntry struct {
	ActivityID string
	Title      string
	Date       time.Time
	PageNumber int
}

// ContentsGroup lists the entries of one activity type.
type ContentsGroup struct {
	Type    domain.ActivityType
	Entries []ContentsEntry
}

// ContentsPage is the table of contents.
type ContentsPage struct {
	Groups []ContentsGroup
}

// DetailPage renders a single activity.
type DetailPage struct {
	PageNumber   int
	ActivityID   string
	Title        string
	Type         domain.ActivityType
	ActivityDate time.Time
	LastModified time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Report       string
}

// Document is a composed export.
type Document struct {
	Cover    CoverPage
	Contents ContentsPage
	Details  []DetailPage
}

// PageKind identifies the section a page belongs to.
type PageKind string

const (
	KindCover    PageKind = "cover"
	KindContents PageKind = "contents"
	KindDetail   PageKind = "detail"
)

// Page is one entry of the ordered page sequence. Exactly one of Cover,
// Contents and Detail is set, matching Kind.
type Page struct {
	Number   int
	Kind     PageKind
	Cover    *CoverPage
	Contents *ContentsPage
	Detail   *DetailPage
}

// PageCount is the number of pages including cover and table of contents.
func (d *Document) PageCount() int {
	return len(d.Details) + 2
}

// Pages returns the cover, the table of contents and the detail pages in order.
func (d *Document) Pages() []Page {
	pages := make([]Page, 0, d.PageCount())
	pages = append(pages,
		Page{Number: CoverPageNumber, Kind: KindCover, Cover: &d.Cover},
		Page{Number: ContentsPageNumber, Kind: KindContents, Contents: &d.Contents},
	)
	for i := range d.Details {
		pages = append(pages, Page{Number: d.Details[i].PageNumber, Kind: KindDetail, Detail: &d.Details[i]})
	}
	return pages
}

// Compose builds the document for req.
//
// Activities are grouped by type in the order each type first appears; within
// a group the input order is kept. Detail pages follow that flattened order and
// carry the same page numbers the table of contents shows for them.
func Compose(req Request) (*Document, error) {
	startDate, err := parseBound("dateRange.start", req.DateRange.Start)
	if err != nil {
		return nil, err
	}
	endDate, err := parseBound("dateRange.end", req.DateRange.End)
	if err != nil {
		return nil, err
	}
	for i, activity := range req.Activities {
		if activity.ActivityDate.IsZero() {
			return nil, &domain.FormatError{Field: fmt.Sprintf("activities[%d].activityDate", i)}
		}
	}

	typeLabel := strings.TrimSpace(req.TypeLabel)
	if typeLabel == allTypesLabel {
		typeLabel = ""
	}

	doc := &Document{
		Cover: CoverPage{
			DisplayName:     req.DisplayName,
			StartDate:       startDate,
			EndDate:         endDate,
			TypeLabel:       typeLabel,
			TotalActivities: len(req.Activities),
			GeneratedAt:     req.GeneratedAt,
		},
		Details: make([]DetailPage, 0, len(req.Activities)),
	}

	for _, group := range groupByType(req.Activities) {
		contents := ContentsGroup{Type: group.activityType, Entries: make([]ContentsEntry, 0, len(group.members))}
		for _, activity := range group.members {
			pageNumber := StartPage + len(doc.Details)
			contents.Entries = append(contents.Entries, ContentsEntry{
				ActivityID: activity.ID,
				Title:      activity.Title,
				Date:       activity.ActivityDate,
				PageNumber: pageNumber,
			})
			doc.Details = append(doc.Details, DetailPage{
				PageNumber:   pageNumber,
				ActivityID:   activity.ID,
				Title:        activity.Title,
				Type:         activity.Type,
				ActivityDate: activity.ActivityDate,
				LastModified: activity.LastModified,
				CreatedAt:    activity.CreatedAt,
				UpdatedAt:    activity.UpdatedAt,
				Report:       Sanitize(activity.Report),
			})
		}
		doc.Contents.Groups = append(doc.Contents.Groups, contents)
	}
	return doc, nil
}

type typeGroup struct {
	activityType domain.ActivityType
	members      []domain.Activity
}

func groupByType(activities []domain.Activity) []typeGroup {
	groups := make([]typeGroup, 0)
	index := make(map[domain.ActivityType]int)
	for _, activity := range activities {
		i, ok := index[activity.Type]
		if !ok {
			i = len(groups)
			index[activity.Type] = i
			groups = append(groups, typeGroup{activityType: activity.Type})
		}
		groups[i].members = append(groups[i].members, activity)
	}
	return groups
}

func parseBound(field, raw string) (*time.Time, error) {
	ts, err := domain.ParseOptionalDate(field, raw, false)
	if err != nil || ts == nil {
		return nil, err
	}
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}
