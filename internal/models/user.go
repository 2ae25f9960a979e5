package models

import "time"

const (
	RoleOwner   = "owner"
	RolePartner = "partner"
)

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)

type User struct {
	ID                uint       `gorm:"primaryKey"`
	Email             string     `gorm:"uniqueIndex;not null"`
	PasswordHash      string     `gorm:"not null"`
	Role              string     `gorm:"not null;default:owner"`
	DisplayName       string     `gorm:"not null;default:''"`
	LastPeriodDate    *time.Time `gorm:"type:date"`
	AvgCycleLength    *int
	IsIrregular       bool      `gorm:"not null;default:false"`
	AvgPeriodDuration int       `gorm:"not null;default:5"`
	CreatedAt         time.Time `gorm:"not null"`
}

// ProfileConfig is the per-user cycle configuration consumed by the cycle engine.
// LastPeriodDate is only a hint: period-start logs supersede it when present.
type ProfileConfig struct {
	LastPeriodDate    *time.Time `json:"last_period_date"`
	AvgCycleLength    *int       `json:"avg_cycle_length"`
	IsIrregular       bool       `json:"is_irregular"`
	AvgPeriodDuration int        `json:"avg_period_duration"`
}

func (user User) Profile() ProfileConfig {
	periodDuration := user.AvgPeriodDuration
	if periodDuration <= 0 {
		periodDuration = DefaultPeriodLength
	}
	return ProfileConfig{
		LastPeriodDate:    user.LastPeriodDate,
		AvgCycleLength:    user.AvgCycleLength,
		IsIrregular:       user.IsIrregular,
		AvgPeriodDuration: periodDuration,
	}
}
