package services

import (
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

const dayLayout = "2006-01-02"

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// CalendarDate keeps the stored year/month/day of a date-only value and re-anchors it to
// location. Stored log dates are calendar dates, not instants.
func CalendarDate(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DaysBetween returns the signed number of calendar days from start to end.
func DaysBetween(start time.Time, end time.Time) int {
	startYear, startMonth, startDay := start.Date()
	endYear, endMonth, endDay := end.Date()
	startUTC := time.Date(startYear, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	endUTC := time.Date(endYear, endMonth, endDay, 0, 0, 0, 0, time.UTC)
	return int(endUTC.Sub(startUTC).Hours() / 24)
}

func DayKey(value time.Time) string {
	return value.Format(dayLayout)
}

func DayHasData(entry models.DailyLog) bool {
	if entry.HasPeriodFlag() {
		return true
	}
	if len(entry.Symptoms) > 0 {
		return true
	}
	if entry.SentimentScore != nil {
		return true
	}
	return strings.TrimSpace(entry.Notes) != ""
}

func sortedLogsCopy(logs []models.DailyLog, location *time.Location) []models.DailyLog {
	sorted := make([]models.DailyLog, 0, len(logs))
	for _, entry := range logs {
		entry.Date = CalendarDate(entry.Date, location)
		sorted = append(sorted, entry)
	}
	sortLogsByDate(sorted)
	return sorted
}

func betweenCalendarDaysInclusive(day time.Time, start time.Time, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !day.Before(start) && !day.After(end)
}

func timePtr(value time.Time) *time.Time {
	return &value
}

func intPtr(value int) *int {
	return &value
}
