package domain

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrClassNotFound    = errors.New("fitness class not found")
	ErrClassExpired     = errors.New("class has already expired")
	ErrNoSlots          = errors.New("no available slots")
	ErrDuplicateBooking = errors.New("client has already booked this class")
	ErrBookingNotFound  = errors.New("booking not found")

	// ErrSlotOverflow means a release would push available_slots past
	// total_slots. The ledger refuses the write so the bug surfaces.
	ErrSlotOverflow = errors.New("available slots would exceed total slots")

	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
