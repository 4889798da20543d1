package domain

import (
	"math"
	"strings"
	"time"
)

const (
	// DefaultPage is used when the caller omits or sends a non-positive page.
	DefaultPage = 1
	// DefaultLimit is used when the caller omits or sends a non-positive limit.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 100
)

const calendarDate = "2006-01-02"

// ListQuery enumerates the recognized list filters.
type ListQuery struct {
	Type      *ActivityType
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Normalized clamps paging values to their documented defaults. Page is also
// capped so that Offset plus Limit stays within int.
func (q ListQuery) Normalized() ListQuery {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

// Offset returns the number of records skipped before the current page.
func (q ListQuery) Offset() int {
	q = q.Normalized()
	return (q.Page - 1) * q.Limit
}

// Matches reports whether a satisfies the type and date filters.
func (q ListQuery) Matches(a Activity) bool {
	if q.Type != nil && a.Type != *q.Type {
		return false
	}
	if q.StartDate != nil && a.ActivityDate.Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && a.ActivityDate.After(*q.EndDate) {
		return false
	}
	return true
}

// Page is one slice of a listing plus the total number of matches.
type Page struct {
	Items []Activity
	Page  int
	Limit int
	Total int
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD calendar date.
// With endOfDay set, a calendar date resolves to the last instant of that day.
func ParseDate(field, raw string, endOfDay bool) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &FormatError{Field: field}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	day, err := time.Parse(calendarDate, value)
	if err != nil {
		return time.Time{}, &FormatError{Field: field, Value: raw, Err: err}
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

// ParseOptionalDate is ParseDate for filters where an empty value means "unset".
func ParseOptionalDate(field, raw string, endOfDay bool) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ts, err := ParseDate(field, raw, endOfDay)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
