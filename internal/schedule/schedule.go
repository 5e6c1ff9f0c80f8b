// Package schedule generates bookable time slots and plans availability
// across the upcoming business days.
package schedule

import (
	"fmt"
	"time"

	"github.com/slotbook/slotbook/internal/clock"
	"github.com/slotbook/slotbook/internal/model"
)

// Config holds the business-hours window. Boundaries are minutes from
// local midnight; the end boundary is exclusive.
type Config struct {
	DayStartMinutes int
	DayEndMinutes   int
	StepMinutes     int
	BusinessDays    int
}

func DefaultConfig() Config {
	return Config{
		DayStartMinutes: 9 * 60,
		DayEndMinutes:   17 * 60,
		StepMinutes:     30,
		BusinessDays:    5,
	}
}

// SlotLabels returns the ascending HH:mm labels of every slot start in the
// business-hours window.
func (c Config) SlotLabels() []string {
	var labels []string
	for m := c.DayStartMinutes; m < c.DayEndMinutes; m += c.StepMinutes {
		labels = append(labels, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return labels
}

type Planner struct {
	cfg Config
}

func NewPlanner(cfg Config) *Planner {
	if cfg.StepMinutes <= 0 || cfg.DayEndMinutes <= cfg.DayStartMinutes {
		cfg = DefaultConfig()
	}
	if cfg.BusinessDays <= 0 {
		cfg.BusinessDays = DefaultConfig().BusinessDays
	}
	return &Planner{cfg: cfg}
}

// Plan walks forward from now's civil date and returns availability for the
// next cfg.BusinessDays business days. Saturdays and Sundays are skipped.
// For today, slots that already started are dropped; if nothing bookable
// remains today, the day is skipped without consuming one of the
// BusinessDays, so the window can reach past one calendar week.
func (p *Planner) Plan(now time.Time, booked map[string]struct{}) []model.DayAvailability {
	local := now.In(clock.Location)
	today := local.Format("2006-01-02")
	currentMinutes := clock.MinuteOfDay(now)
	labels := p.cfg.SlotLabels()

	days := make([]model.DayAvailability, 0, p.cfg.BusinessDays)
	for offset := 0; len(days) < p.cfg.BusinessDays; offset++ {
		day := local.AddDate(0, 0, offset)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		date := day.Format("2006-01-02")
		valid := labels
		if date == today && currentMinutes >= p.cfg.DayStartMinutes {
			valid = laterThan(labels, currentMinutes)
			if len(valid) == 0 {
				// Today is exhausted; it does not count toward the window.
				continue
			}
		}

		slots := make([]model.Slot, 0, len(valid))
		for _, label := range valid {
			_, taken := booked[date+"T"+label]
			slots = append(slots, model.Slot{Date: date, Time: label, Available: !taken})
		}
		days = append(days, model.DayAvailability{Day: date, Slots: slots})
	}
	return days
}

// laterThan keeps labels whose start is strictly after the given minute of day.
func laterThan(labels []string, minuteOfDay int) []string {
	var out []string
	for _, label := range labels {
		var h, m int
		if _, err := fmt.Sscanf(label, "%d:%d", &h, &m); err != nil {
			continue
		}
		if h*60+m > minuteOfDay {
			out = append(out, label)
		}
	}
	return out
}
