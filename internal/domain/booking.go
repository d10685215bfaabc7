package domain

import "time"

type Booking struct {
	ID          int64
	ClassID     int64
	ClientName  string
	ClientEmail string
	BookingTime time.Time

	// Class is populated on list queries so callers can render the
	// booking together with its class.
	Class *FitnessClass
}
