package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencyDaysInterval FrequencyType = "days_interval"
	FrequencyWeekly       FrequencyType = "weekly"
	FrequencyMonthly      FrequencyType = "monthly"
	FrequencyAsNeeded     FrequencyType = "as_needed"
)

// Valid reports whether the frequency is one of the enumerated choices.
func (f FrequencyType) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyDaysInterval, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

// WeekdaySet is a set of weekdays (0=Sunday .. 6=Saturday) stored as a
// comma-separated string, e.g. "1,3,5".
type WeekdaySet []time.Weekday

func ParseWeekdaySet(s string) (WeekdaySet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[time.Weekday]bool)
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		day := time.Weekday(n)
		if seen[day] {
			continue
		}
		seen[day] = true
		set = append(set, day)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set, nil
}

func (w WeekdaySet) String() string {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// Contains reports whether day is in the set.
func (w WeekdaySet) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func (w WeekdaySet) Value() (driver.Value, error) {
	if len(w) == 0 {
		return nil, nil
	}
	return w.String(), nil
}

func (w *WeekdaySet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		set, err := ParseWeekdaySet(v)
		if err != nil {
			return err
		}
		*w = set
		return nil
	case []byte:
		set, err := ParseWeekdaySet(string(v))
		if err != nil {
			return err
		}
		*w = set
		return nil
	}
	return fmt.Errorf("cannot scan %T into WeekdaySet", src)
}

// MedicationSchedule is one dosing rule belonging to a medication, e.g.
// "7mg at 9am daily" or an open-ended as-needed rule. Retired schedules
// are deactivated rather than deleted so their dose history survives.
type MedicationSchedule struct {
	Base
	MedicationID  uuid.UUID     `db:"medication_id" json:"medication_id"`
	StartDate     time.Time     `db:"start_date" json:"start_date"`
	EndDate       *time.Time    `db:"end_date" json:"end_date,omitempty"`
	DoseAmount    float64       `db:"dose_amount" json:"dose_amount"`
	DoseUnitID    uuid.UUID     `db:"dose_unit_id" json:"dose_unit_id"`
	FrequencyType FrequencyType `db:"frequency_type" json:"frequency_type"`
	DaysInterval  *int          `db:"days_interval" json:"days_interval,omitempty"`
	WeeklyDays    WeekdaySet    `db:"weekly_days" json:"weekly_days,omitempty"`
	IsActive      bool          `db:"is_active" json:"is_active"`
}

type CreateScheduleRequest struct {
	MedicationID  uuid.UUID `json:"medication_id" binding:"required"`
	StartDate     time.Time `json:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate       *time.Time `json:"end_date" time_format:"2006-01-02"`
	DoseAmount    float64   `json:"dose_amount" binding:"required,gt=0"`
	DoseUnitID    uuid.UUID `json:"dose_unit_id" binding:"required"`
	FrequencyType string    `json:"frequency_type" binding:"required,frequency_type"`
	DaysInterval  *int      `json:"days_interval" binding:"omitempty,gt=0"`
	WeeklyDays    string    `json:"weekly_days" binding:"omitempty,weekday_set"`
}

type UpdateScheduleRequest struct {
	StartDate     *time.Time `json:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time `json:"end_date" time_format:"2006-01-02"`
	DoseAmount    *float64   `json:"dose_amount" binding:"omitempty,gt=0"`
	DoseUnitID    *uuid.UUID `json:"dose_unit_id"`
	FrequencyType *string    `json:"frequency_type" binding:"omitempty,frequency_type"`
	DaysInterval  *int       `json:"days_interval" binding:"omitempty,gt=0"`
	WeeklyDays    *string    `json:"weekly_days" binding:"omitempty,weekday_set"`
}

type ScheduleFilters struct {
	MedicationID uuid.UUID
	FrequencyType FrequencyType
	ActiveOnly   bool
}
