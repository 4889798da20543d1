package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLength is the longest accepted title, counted after trimming.
	MaxTitleLength = 200
	// MaxReportLength is the longest accepted report body.
	MaxReportLength = 50000
)

// ActivityType is one of the fixed logbook categories.
type ActivityType string

const (
	TypeOutPatients   ActivityType = "Out Patients"
	TypeInPatients    ActivityType = "In Patients"
	TypeProcedures    ActivityType = "Procedures"
	TypeResearch      ActivityType = "Research"
	TypeTeaching      ActivityType = "Teaching"
	TypeSeminars      ActivityType = "Seminars"
	TypePresentations ActivityType = "Presentations"
	TypeOutreach      ActivityType = "Outreach"
	TypeLaboratory    ActivityType = "Laboratory"
)

// ActivityTypes lists every accepted category in display order.
var ActivityTypes = []ActivityType{
	TypeOutPatients,
	TypeInPatients,
	TypeProcedures,
	TypeResearch,
	TypeTeaching,
	TypeSeminars,
	TypePresentations,
	TypeOutreach,
	TypeLaboratory,
}

// Valid reports whether t is one of the known categories.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseActivityType trims raw and checks it against the known categories.
func ParseActivityType(raw string) (ActivityType, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", &ValidationError{Field: "type", Message: "Activity type is required"}
	}
	t := ActivityType(value)
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Message: "Invalid activity type"}
	}
	return t, nil
}

// Activity is one logged piece of clinical or academic work.
type Activity struct {
	ID           string
	OwnerID      string
	Title        string
	Type         ActivityType
	Report       string
	ActivityDate time.Time
	LastModified time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrActivityNotFound is returned when an activity does not exist or belongs to another owner.
	ErrActivityNotFound = errors.New("activity not found")
)

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FormatError reports a value that could not be parsed, typically a date.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "Title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Message: fmt.Sprintf("Title cannot be more than %d characters", MaxTitleLength)}
	}
	return title, nil
}

func validateReport(report string) (string, error) {
	report = strings.TrimSpace(report)
	if report == "" {
		return "", &ValidationError{Field: "report", Message: "Report is required"}
	}
	if utf8.RuneCountInString(report) > MaxReportLength {
		return "", &ValidationError{Field: "report", Message: fmt.Sprintf("Report cannot be more than %d characters", MaxReportLength)}
	}
	return report, nil
}

func validateType(t ActivityType) error {
	if strings.TrimSpace(string(t)) == "" {
		return &ValidationError{Field: "type", Message: "Activity type is required"}
	}
	if !t.Valid() {
		return &ValidationError{Field: "type", Message: "Invalid activity type"}
	}
	return nil
}

// CreateActivityInput carries the caller-supplied fields of a new activity.
// A zero ActivityDate defaults to the creation time.
type CreateActivityInput struct {
	Title        string
	Type         ActivityType
	Report       string
	ActivityDate time.Time
}

// Normalize trims text fields and checks them in title, type, report order.
func (in CreateActivityInput) Normalize() (CreateActivityInput, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return in, err
	}
	in.Title = title
	in.Type = ActivityType(strings.TrimSpace(string(in.Type)))
	if err := validateType(in.Type); err != nil {
		return in, err
	}
	report, err := validateReport(in.Report)
	if err != nil {
		return in, err
	}
	in.Report = report
	return in, nil
}

// UpdateActivityInput carries a partial update; nil fields are left untouched.
type UpdateActivityInput struct {
	Title        *string
	Type         *ActivityType
	Report       *string
	ActivityDate *time.Time
}

// Empty reports whether the update carries no fields.
func (in UpdateActivityInput) Empty() bool {
	return in.Title == nil && in.Type == nil && in.Report == nil && in.ActivityDate == nil
}

// Normalize validates only the supplied fields.
func (in UpdateActivityInput) Normalize() (UpdateActivityInput, error) {
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return in, err
		}
		in.Title = &title
	}
	if in.Type != nil {
		t := ActivityType(strings.TrimSpace(string(*in.Type)))
		if err := validateType(t); err != nil {
			return in, err
		}
		in.Type = &t
	}
	if in.Report != nil {
		report, err := validateReport(*in.Report)
		if err != nil {
			return in, err
		}
		in.Report = &report
	}
	if in.ActivityDate != nil && in.ActivityDate.IsZero() {
		return in, &ValidationError{Field: "activityDate", Message: "Activity date is required"}
	}
	return in, nil
}

// Apply copies the supplied fields onto a and refreshes LastModified.
// LastModified never moves backwards.
func (in UpdateActivityInput) Apply(a Activity, now time.Time) Activity {
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Report != nil {
		a.Report = *in.Report
	}
	if in.ActivityDate != nil {
		a.ActivityDate = in.ActivityDate.UTC()
	}
	if now.After(a.LastModified) {
		a.LastModified = now
	}
	a.UpdatedAt = a.LastModified
	return a
}
