package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all entities
type Base struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot is the (date, time-of-day) pair identifying when a consultation
// occurs. Both fields use fixed-width layouts so that slots order
// correctly as plain strings.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04"
)

// Validate checks both fields parse under their layouts.
func (s Slot) Validate() error {
	if _, err := time.Parse(SlotDateLayout, s.Date); err != nil {
		return err
	}
	_, err := time.Parse(SlotTimeLayout, s.Time)
	return err
}

// At resolves the slot to a wall-clock instant in the given location.
func (s Slot) At(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(SlotDateLayout+" "+SlotTimeLayout, s.Date+" "+s.Time, loc)
}

// Key returns the slot's sortable string form.
func (s Slot) Key() string {
	return s.Date + " " + s.Time
}

func (s Slot) Before(other Slot) bool {
	return s.Key() < other.Key()
}

func (s Slot) Equal(other Slot) bool {
	return s.Date == other.Date && s.Time == other.Time
}
