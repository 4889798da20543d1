package api

import (
	"encoding/json"
	"time"

	"github.com/drjagan/e-logbook/internal/domain"
	"github.com/drjagan/e-logbook/internal/report"
)

// CreateActivityRequest is the payload for POST /v1/activities.
type CreateActivityRequest struct {
	Title        string `json:"title"`
	Type         string `json:"type"`
	Report       string `json:"report"`
	ActivityDate string `json:"activityDate"`
}

// toInput checks fields in title, type, report, activityDate order.
func (r CreateActivityRequest) toInput() (domain.CreateActivityInput, error) {
	input, err := domain.CreateActivityInput{
		Title:  r.Title,
		Type:   domain.ActivityType(r.Type),
		Report: r.Report,
	}.Normalize()
	if err != nil {
		return input, err
	}
	input.ActivityDate, err = requireDate(r.ActivityDate)
	return input, err
}

// UpdateActivityRequest is the payload for PUT/PATCH /v1/activities/{id}.
// Omitted fields are left unchanged.
type UpdateActivityRequest struct {
	Title        *string `json:"title"`
	Type         *string `json:"type"`
	Report       *string `json:"report"`
	ActivityDate *string `json:"activityDate"`
}

// toInput only converts the payload shape; field validation happens in the
// service after the ownership check.
func (r UpdateActivityRequest) toInput() (domain.UpdateActivityInput, error) {
	input := domain.UpdateActivityInput{Title: r.Title, Report: r.Report}
	if r.Type != nil {
		t := domain.ActivityType(*r.Type)
		input.Type = &t
	}
	if r.ActivityDate != nil {
		date, err := requireDate(*r.ActivityDate)
		if err != nil {
			return input, err
		}
		input.ActivityDate = &date
	}
	return input, nil
}

func requireDate(raw string) (time.Time, error) {
	date, err := domain.ParseOptionalDate("activityDate", raw, false)
	if err != nil {
		return time.Time{}, err
	}
	if date == nil {
		return time.Time{}, &domain.ValidationError{Field: "activityDate", Message: "Activity date is required"}
	}
	return *date, nil
}

// CreateReportRequest is the payload for POST /v1/reports.
type CreateReportRequest struct {
	ActivityIDs []string       `json:"activityIds"`
	DateRange   DateRangeInput `json:"dateRange"`
	DisplayName string         `json:"displayName"`
	Type        string         `json:"type,omitempty"`
}

// DateRangeInput holds the raw period bounds of a report.
type DateRangeInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

type dataEnvelope struct {
	Data interface{} `json:"data"`
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Report       string    `json:"report"`
	ActivityDate time.Time `json:"activityDate"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PaginationView describes the returned page.
type PaginationView struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Data       []ActivityView `json:"data"`
	Pagination PaginationView `json:"pagination"`
}

// TypeCountView is one by-type bucket.
type TypeCountView struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// MonthCountView is one monthly bucket; Month runs 1-12.
type MonthCountView struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// StatsView is the body of GET /v1/activities/stats.
type StatsView struct {
	ByType  []TypeCountView  `json:"byType"`
	Monthly []MonthCountView `json:"monthly"`
}

// CoverView renders the report cover.
type CoverView struct {
	DisplayName     string     `json:"displayName"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Type            string     `json:"type,omitempty"`
	TotalActivities int        `json:"totalActivities"`
	GeneratedAt     time.Time  `json:"generatedAt"`
}

// ContentsEntryView is one table of contents line.
type ContentsEntryView struct {
	ActivityID string    `json:"activityId"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	PageNumber int       `json:"pageNumber"`
}

// ContentsGroupView lists the entries of one type.
type ContentsGroupView struct {
	Type    string              `json:"type"`
	Entries []ContentsEntryView `json:"entries"`
}

// DetailView renders one activity page.
type DetailView struct {
	ActivityID   string    `json:"activityId"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	ActivityDate time.Time `json:"activityDate"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Report       string    `json:"report"`
}

// PageView is one page of the composed report.
type PageView struct {
	Number   int                 `json:"number"`
	Kind     string              `json:"kind"`
	Cover    *CoverView          `json:"cover,omitempty"`
	Contents []ContentsGroupView `json:"contents,omitempty"`
	Detail   *DetailView         `json:"detail,omitempty"`
}

// MarshalJSON always writes the contents key on the table of contents page,
// even when the report has no activities.
func (p PageView) MarshalJSON() ([]byte, error) {
	type plain PageView
	if p.Kind != string(report.KindContents) {
		return json.Marshal(plain(p))
	}
	contents := p.Contents
	if contents == nil {
		contents = []ContentsGroupView{}
	}
	return json.Marshal(struct {
		plain
		Contents []ContentsGroupView `json:"contents"`
	}{plain: plain(p), Contents: contents})
}

// ReportView is the JSON rendering of a composed report.
type ReportView struct {
	PageCount int        `json:"pageCount"`
	Pages     []PageView `json:"pages"`
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:           a.ID,
		Title:        a.Title,
		Type:         string(a.Type),
		Report:       a.Report,
		ActivityDate: a.ActivityDate,
		LastModified: a.LastModified,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toStatsView(stats domain.ActivityStats) StatsView {
	view := StatsView{
		ByType:  make([]TypeCountView, 0, len(stats.ByType)),
		Monthly: make([]MonthCountView, 0, len(stats.Monthly)),
	}
	for _, bucket := range stats.ByType {
		view.ByType = append(view.ByType, TypeCountView{Type: string(bucket.Type), Count: bucket.Count})
	}
	for _, bucket := range stats.Monthly {
		view.Monthly = append(view.Monthly, MonthCountView{Year: bucket.Year, Month: int(bucket.Month), Count: bucket.Count})
	}
	return view
}

func toReportView(doc *report.Document) ReportView {
	view := ReportView{PageCount: doc.PageCount()}
	for _, page := range doc.Pages() {
		pv := PageView{Number: page.Number, Kind: string(page.Kind)}
		switch page.Kind {
		case report.KindCover:
			c := page.Cover
			pv.Cover = &CoverView{
				DisplayName:     c.DisplayName,
				StartDate:       c.StartDate,
				EndDate:         c.EndDate,
				Type:            c.TypeLabel,
				TotalActivities: c.TotalActivities,
				GeneratedAt:     c.GeneratedAt,
			}
		case report.KindContents:
			pv.Contents = make([]ContentsGroupView, 0, len(page.Contents.Groups))
			for _, group := range page.Contents.Groups {
				gv := ContentsGroupView{Type: string(group.Type), Entries: make([]ContentsEntryView, 0, len(group.Entries))}
				for _, entry := range group.Entries {
					gv.Entries = append(gv.Entries, ContentsEntryView{
						ActivityID: entry.ActivityID,
						Title:      entry.Title,
						Date:       entry.Date,
						PageNumber: entry.PageNumber,
					})
				}
				pv.Contents = append(pv.Contents, gv)
			}
		case report.KindDetail:
			d := page.Detail
			pv.Detail = &DetailView{
				ActivityID:   d.ActivityID,
				Title:        d.Title,
				Type:         string(d.Type),
				ActivityDate: d.ActivityDate,
				LastModified: d.LastModified,
				CreatedAt:    d.CreatedAt,
				UpdatedAt:    d.UpdatedAt,
				Report:       d.Report,
			}
		}
		view.Pages = append(view.Pages, pv)
	}
	return view
}
