package services

import (
	"testing"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

func calendarDayByKey(t *testing.T, days []CalendarDay, key string) CalendarDay {
	t.Helper()
	for _, day := range days {
		if day.DateString == key {
			return day
		}
	}
	t.Fatalf("day %s missing from calendar", key)
	return CalendarDay{}
}

func calendarFixtureLogs() []models.DailyLog {
	return []models.DailyLog{
		periodStartLog(calendarDay(2024, time.January, 1)),
		periodEndLog(calendarDay(2024, time.January, 2)),
		{Date: calendarDay(2024, time.January, 3), PeriodEnded: boolRef(true), Notes: "last day"},
		{Date: calendarDay(2024, time.January, 8), Symptoms: []string{"headache"}},
	}
}

func TestBuildCalendarMonthGridAndMarkers(t *testing.T) {
	t.Parallel()

	profile := models.ProfileConfig{AvgCycleLength: intRef(28)}
	days := BuildCalendarMonth(calendarDay(2024, time.January, 1), profile, calendarFixtureLogs(), calendarDay(2024, time.January, 5))

	if len(days) != 35 {
		t.Fatalf("expected a 5-week grid, got %d days", len(days))
	}
	if days[0].DateString != "2023-12-31" || days[len(days)-1].DateString != "2024-02-03" {
		t.Fatalf("expected Sunday-aligned grid, got %s..%s", days[0].DateString, days[len(days)-1].DateString)
	}
	if days[0].InMonth || !days[1].InMonth {
		t.Fatal("expected in-month flags to follow the month boundary")
	}

	first := calendarDayByKey(t, days, "2024-01-01")
	if !first.IsPeriod || first.IsPredicted || !first.HasData {
		t.Fatalf("unexpected marker for logged period day: %+v", first)
	}
	if today := calendarDayByKey(t, days, "2024-01-05"); !today.IsToday || today.HasData {
		t.Fatalf("unexpected marker for today: %+v", today)
	}
	if symptomDay := calendarDayByKey(t, days, "2024-01-08"); !symptomDay.HasData || symptomDay.IsPeriod {
		t.Fatalf("unexpected marker for symptom day: %+v", symptomDay)
	}

	ovulation := calendarDayByKey(t, days, "2024-01-15")
	if !ovulation.IsOvulation || ovulation.IsFertile {
		t.Fatalf("ovulation must win over fertile marker: %+v", ovulation)
	}
	for _, key := range []string{"2024-01-10", "2024-01-14", "2024-01-16"} {
		if day := calendarDayByKey(t, days, key); !day.IsFertile {
			t.Fatalf("expected %s to be fertile", key)
		}
	}
	if day := calendarDayByKey(t, days, "2024-01-17"); day.IsFertile {
		t.Fatal("fertile window ends one day after ovulation")
	}

	for _, key := range []string{"2024-01-29", "2024-01-30", "2024-01-31"} {
		if day := calendarDayByKey(t, days, key); !day.IsPredicted {
			t.Fatalf("expected %s to be a predicted period day", key)
		}
	}
	if day := calendarDayByKey(t, days, "2024-02-01"); day.IsPredicted {
		t.Fatal("predicted period should last the observed three days")
	}
}

func TestBuildCalendarMonthSkipsPredictionsBeforeToday(t *testing.T) {
	t.Parallel()

	profile := models.ProfileConfig{AvgCycleLength: intRef(28)}
	days := BuildCalendarMonth(calendarDay(2024, time.January, 1), profile, calendarFixtureLogs(), calendarDay(2024, time.January, 30))

	if day := calendarDayByKey(t, days, "2024-01-29"); day.IsPredicted {
		t.Fatal("past projected days must not be painted as predicted")
	}
	for _, key := range []string{"2024-01-30", "2024-01-31"} {
		if day := calendarDayByKey(t, days, key); !day.IsPredicted {
			t.Fatalf("expected %s to be predicted", key)
		}
	}
}

func TestBuildCalendarMonthIrregularProfileHasNoProjections(t *testing.T) {
	t.Parallel()

	profile := models.ProfileConfig{AvgCycleLength: intRef(28), IsIrregular: true}
	days := BuildCalendarMonth(calendarDay(2024, time.January, 1), profile, calendarFixtureLogs(), calendarDay(2024, time.January, 5))
	for _, day := range days {
		if day.IsPredicted || day.IsFertile || day.IsOvulation {
			t.Fatalf("expected no projections for irregular profile, got %+v", day)
		}
	}
	if first := calendarDayByKey(t, days, "2024-01-01"); !first.IsPeriod {
		t.Fatal("logged period days are still shown")
	}
}
