package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestSummarizeMonthlyIsCappedAndDescending(t *testing.T) {
	activities := make([]Activity, 0)
	start := time.Date(2022, time.November, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 18; i++ {
		activities = append(activities, Activity{
			ID:           fmt.Sprintf("a-%02d", i),
			Type:         ActivityTypes[i%len(ActivityTypes)],
			ActivityDate: start.AddDate(0, i, 0),
		})
	}
	// a month with two entries and a gap the summary must not fill
	activities = append(activities, Activity{ID: "extra", Type: TypeResearch, ActivityDate: start.AddDate(0, 17, 3)})

	stats := Summarize(activities)

	if len(stats.Monthly) != MaxMonthlyBuckets {
		t.Fatalf("expected %d monthly buckets, got %d", MaxMonthlyBuckets, len(stats.Monthly))
	}
	first := stats.Monthly[0]
	if first.Year != 2024 || first.Month != time.April || first.Count != 2 {
		t.Fatalf("unexpected most recent bucket %+v", first)
	}
	for i := 1; i < len(stats.Monthly); i++ {
		prev, cur := stats.Monthly[i-1], stats.Monthly[i]
		if prev.Year < cur.Year || (prev.Year == cur.Year && prev.Month <= cur.Month) {
			t.Fatalf("monthly not strictly descending at %d: %+v then %+v", i, prev, cur)
		}
	}

	total := 0
	for _, bucket := range stats.ByType {
		if bucket.Count == 0 {
			t.Fatalf("zero-count type %s emitted", bucket.Type)
		}
		total += bucket.Count
	}
	if total != len(activities) {
		t.Fatalf("byType sums to %d, want %d", total, len(activities))
	}
}

func TestSummarizeByTypeOrdering(t *testing.T) {
	activities := []Activity{
		{Type: TypeTeaching}, {Type: TypeOutreach}, {Type: TypeTeaching},
		{Type: TypeLaboratory}, {Type: TypeResearch}, {Type: TypeResearch},
	}
	stats := Summarize(activities)
	want := []TypeCount{
		{Type: TypeResearch, Count: 2},
		{Type: TypeTeaching, Count: 2},
		{Type: TypeLaboratory, Count: 1},
		{Type: TypeOutreach, Count: 1},
	}
	if len(stats.ByType) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(stats.ByType))
	}
	for i := range want {
		if stats.ByType[i] != want[i] {
			t.Fatalf("bucket %d = %+v, want %+v", i, stats.ByType[i], want[i])
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	if len(stats.ByType) != 0 || len(stats.Monthly) != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestParseDate(t *testing.T) {
	end, err := ParseDate("endDate", "2024-02-29", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, time.February, 29, 23, 59, 59, 999999999, time.UTC); !end.Equal(want) {
		t.Fatalf("end of day = %v, want %v", end, want)
	}

	ts, err := ParseDate("startDate", "2024-02-29T10:00:00+02:00", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, time.February, 29, 8, 0, 0, 0, time.UTC); !ts.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", ts, want)
	}

	_, err = ParseDate("startDate", "29/02/2024", false)
	formatErr, ok := err.(*FormatError)
	if !ok || formatErr.Field != "startDate" {
		t.Fatalf("expected FormatError on startDate, got %v", err)
	}

	unset, err := ParseOptionalDate("endDate", " ", true)
	if err != nil || unset != nil {
		t.Fatalf("expected nil for empty optional date, got %v, %v", unset, err)
	}
}
