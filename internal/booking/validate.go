// Package booking decides whether a requested appointment may be created.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slotbook/slotbook/internal/clock"
	"github.com/slotbook/slotbook/internal/model"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrPastBooking   = errors.New("cannot book past times")
	ErrSlotTaken     = errors.New("slot already booked")
)

// Request carries the client-supplied booking fields. Date is YYYY-MM-DD,
// Time is HH:mm in the booking timezone.
type Request struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

// Validate applies the booking rules in order (required fields, not in the
// past, slot free) and on success constructs the appointment to persist.
// existing holds the dateTime tokens of all live appointments; the
// check-then-insert sequence is not atomic, concurrent callers can race.
func Validate(req Request, now time.Time, existing map[string]struct{}) (model.Appointment, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Email == "" || req.Date == "" || req.Time == "" {
		return model.Appointment{}, ErrMissingFields
	}

	requested, err := clock.Compose(req.Date, req.Time)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("%w: invalid date or time", ErrMissingFields)
	}
	if requested.Before(now) {
		return model.Appointment{}, ErrPastBooking
	}

	dateTime := req.Date + "T" + req.Time
	if _, taken := existing[dateTime]; taken {
		return model.Appointment{}, ErrSlotTaken
	}

	return model.Appointment{
		ID:        uuid.NewString(),
		DateTime:  dateTime,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Reason:    strings.TrimSpace(req.Reason),
		CreatedAt: now.UTC(),
	}, nil
}
