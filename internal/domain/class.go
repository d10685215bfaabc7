package domain

import "time"

type FitnessClass struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DateTime       time.Time `json:"date_time"`
	Instructor     string    `json:"instructor"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// Expired reports whether the class can no longer be booked.
func (c *FitnessClass) Expired(now time.Time) bool {
	return c.DateTime.Before(now)
}
