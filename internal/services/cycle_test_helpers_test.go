package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

func calendarDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func boolRef(value bool) *bool {
	return &value
}

func floatRef(value float64) *float64 {
	return &value
}

func intRef(value int) *int {
	return &value
}

func periodStartLog(day time.Time) models.DailyLog {
	return models.DailyLog{Date: day, PeriodStarted: boolRef(true)}
}

func periodEndLog(day time.Time) models.DailyLog {
	return models.DailyLog{Date: day, PeriodEnded: boolRef(true)}
}

func periodStartLogs(days ...time.Time) []models.DailyLog {
	logs := make([]models.DailyLog, 0, len(days))
	for _, day := range days {
		logs = append(logs, periodStartLog(day))
	}
	return logs
}
