package domain

import (
	"sort"
	"time"
)

// MaxMonthlyBuckets caps the monthly summary.
const MaxMonthlyBuckets = 12

// TypeCount is the number of activities logged under one type.
type TypeCount struct {
	Type  ActivityType
	Count int
}

// MonthCount is the number of activities logged in one calendar month.
type MonthCount struct {
	Year  int
	Month time.Month
	Count int
}

// ActivityStats summarizes an owner's whole collection.
type ActivityStats struct {
	ByType  []TypeCount
	Monthly []MonthCount
}

// Summarize groups activities by type and by calendar month (UTC).
//
// ByType is ordered by count descending, then type name. Monthly holds at most
// MaxMonthlyBuckets entries, most recent month first; months without activity
// never appear.
func Summarize(activities []Activity) ActivityStats {
	byType := make(map[ActivityType]int)
	type monthKey struct {
		year  int
		month time.Month
	}
	byMonth := make(map[monthKey]int)

	for _, a := range activities {
		byType[a.Type]++
		d := a.ActivityDate.UTC()
		byMonth[monthKey{year: d.Year(), month: d.Month()}]++
	}

	stats := ActivityStats{
		ByType:  make([]TypeCount, 0, len(byType)),
		Monthly: make([]MonthCount, 0, len(byMonth)),
	}
	for t, count := range byType {
		stats.ByType = append(stats.ByType, TypeCount{Type: t, Count: count})
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		if stats.ByType[i].Count != stats.ByType[j].Count {
			return stats.ByType[i].Count > stats.ByType[j].Count
		}
		return stats.ByType[i].Type < stats.ByType[j].Type
	})

	for key, count := range byMonth {
		stats.Monthly = append(stats.Monthly, MonthCount{Year: key.year, Month: key.month, Count: count})
	}
	sort.Slice(stats.Monthly, func(i, j int) bool {
		if stats.Monthly[i].Year != stats.Monthly[j].Year {
			return stats.Monthly[i].Year > stats.Monthly[j].Year
		}
		return stats.Monthly[i].Month > stats.Monthly[j].Month
	})
	if len(stats.Monthly) > MaxMonthlyBuckets {
		stats.Monthly = stats.Monthly[:MaxMonthlyBuckets]
	}
	return stats
}
