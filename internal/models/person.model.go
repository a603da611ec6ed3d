package models

import "time"

// WorkingWeek is a bitmask of the weekdays a person works, bit n set
// for time.Weekday(n).
type WorkingWeek uint8

const DefaultWorkingWeek WorkingWeek = 1<<time.Monday | 1<<time.Tuesday |
	1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday

func (w WorkingWeek) Includes(d time.Weekday) bool {
	return w&(1<<d) != 0
}

type Person struct {
	BaseUUIDModel
	FirstName   string      `gorm:"type:varchar(100);not null"      json:"firstName"`
	LastName    string      `gorm:"type:varchar(100);not null"      json:"lastName"`
	DisplayName string      `gorm:"type:varchar(200);not null"      json:"displayName"`
	Email       *string     `gorm:"type:varchar(255);uniqueIndex"   json:"email,omitempty"`
	IsAdmin     bool        `gorm:"not null;default:false"          json:"isAdmin"`
	WorkingWeek WorkingWeek `gorm:"not null;default:62"             json:"workingWeek"`
}

// CountWorkingDays counts the days in [start, end] that fall on one of
// the person's working weekdays. Both bounds are inclusive; time-of-day
// is ignored.
func CountWorkingDays(start, end time.Time, week WorkingWeek) int {
	if end.Before(start) {
		return 0
	}

	start = truncateToDay(start)
	end = truncateToDay(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if week.Includes(d.Weekday()) {
			days++
		}
	}

	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
