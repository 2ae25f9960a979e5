package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

type CalendarDay struct {
	Date        time.Time `json:"date"`
	DateString  string    `json:"date_string"`
	Day         int       `json:"day"`
	InMonth     bool      `json:"in_month"`
	IsToday     bool      `json:"is_today"`
	IsPeriod    bool      `json:"is_period"`
	IsPredicted bool      `json:"is_predicted"`
	IsFertile   bool      `json:"is_fertile"`
	IsOvulation bool      `json:"is_ovulation"`
	HasData     bool      `json:"has_data"`
}

// BuildCalendarMonth lays out a Sunday-aligned month grid. Projected cycles repeat the
// configured cycle length from the current anchor; predicted period days are only painted
// from today onwards.
func BuildCalendarMonth(month time.Time, profile models.ProfileConfig, logs []models.DailyLog, today time.Time) []CalendarDay {
	location := today.Location()
	today = DateAtLocation(today, location)
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, location)
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDate(0, 0, 6-int(monthEnd.Weekday()))

	sorted := sortedLogsCopy(logs, location)
	periodMap := make(map[string]bool)
	hasDataMap := make(map[string]bool)
	for _, entry := range sorted {
		key := DayKey(entry.Date)
		periodMap[key] = periodMap[key] || entry.HasPeriodFlag()
		hasDataMap[key] = hasDataMap[key] || DayHasData(entry)
	}

	predictedMap := make(map[string]bool)
	fertileMap := make(map[string]bool)
	ovulationMap := make(map[string]bool)

	if info := ComputeCycleInfo(profile, sorted, today); info != nil && info.NextPeriodDate != nil {
		cycleLength := DaysBetween(info.AnchorDate, *info.NextPeriodDate)
		for cycleStart := info.AnchorDate; !cycleStart.After(gridEnd); cycleStart = cycleStart.AddDate(0, 0, cycleLength) {
			if cycleStart.After(info.AnchorDate) {
				for offset := 0; offset < info.AvgPeriodDuration; offset++ {
					day := cycleStart.AddDate(0, 0, offset)
					if !day.Before(today) {
						predictedMap[DayKey(day)] = true
					}
				}
			}

			projection := projectFertilityForLength(cycleStart, cycleLength, today)
			ovulationMap[DayKey(projection.OvulationDate)] = true
			for day := projection.FertileWindowStart; !day.After(projection.FertileWindowEnd); day = day.AddDate(0, 0, 1) {
				fertileMap[DayKey(day)] = true
			}
		}
	}

	todayKey := DayKey(today)
	days := make([]CalendarDay, 0, 42)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		key := DayKey(day)
		isOvulation := ovulationMap[key]
		days = append(days, CalendarDay{
			Date:        day,
			DateString:  key,
			Day:         day.Day(),
			InMonth:     day.Month() == monthStart.Month(),
			IsToday:     key == todayKey,
			IsPeriod:    periodMap[key],
			IsPredicted: predictedMap[key] && !periodMap[key],
			IsFertile:   fertileMap[key] && !isOvulation,
			IsOvulation: isOvulation,
			HasData:     hasDataMap[key],
		})
	}
	return days
}
