package model

import "time"

// Appointment is a persisted booking record. DateTime is the civil
// "YYYY-MM-DDTHH:mm" token that doubles as the de facto uniqueness key;
// records are never updated in place.
type Appointment struct {
	ID        string    `json:"id"`
	DateTime  string    `json:"dateTime"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slot is one bookable half-hour window on one day. Computed per request,
// never stored.
type Slot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DayAvailability groups a civil date with its ordered slots.
type DayAvailability struct {
	Day   string `json:"day"`
	Slots []Slot `json:"slots"`
}
