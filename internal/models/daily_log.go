package models

import "time"

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

type DailyLog struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         uint      `gorm:"not null;uniqueIndex:uidx_user_date" json:"-"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:uidx_user_date" json:"date"`
	PeriodStarted  *bool     `json:"period_started"`
	PeriodEnded    *bool     `json:"period_ended"`
	Symptoms       []string  `gorm:"serializer:json" json:"symptoms"`
	SentimentScore *float64  `json:"sentiment_score"`
	SentimentLabel *string   `json:"sentiment_label"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (entry DailyLog) IsPeriodStart() bool {
	return entry.PeriodStarted != nil && *entry.PeriodStarted
}

func (entry DailyLog) IsPeriodEnd() bool {
	return entry.PeriodEnded != nil && *entry.PeriodEnded
}

// HasPeriodFlag reports whether the day is marked as either a period start or a period end.
func (entry DailyLog) HasPeriodFlag() bool {
	return entry.IsPeriodStart() || entry.IsPeriodEnd()
}
