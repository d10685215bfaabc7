package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db     *pgxpool.Pool
	ledger *SlotLedger
}

func NewBookingRepository(db *pgxpool.Pool, ledger *SlotLedger) BookingRepository {
	return &PGBookingRepository{db: db, ledger: ledger}
}

// Create inserts the booking and takes a slot in one transaction. The class
// row is locked FOR UPDATE first, so the expiry, duplicate, and capacity
// checks and the insert are indivisible with respect to concurrent bookings
// on the same class. A unique index on (class_id, client_email) backs the
// duplicate check at commit.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var dateTime time.Time
	if err := tx.QueryRow(ctx, `SELECT date_time FROM fitness_classes WHERE id=$1 FOR UPDATE`, booking.ClassID).Scan(&dateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrClassNotFound
		}
		return err
	}
	if dateTime.Before(time.Now()) {
		return domain.ErrClassExpired
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE class_id=$1 AND client_email=$2)`, booking.ClassID, booking.ClientEmail).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateBooking
	}

	if err := r.ledger.Reserve(ctx, tx, booking.ClassID); err != nil {
		return err
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (class_id, client_name, client_email)
		VALUES ($1, $2, $3)
		RETURNING id, booking_time`, booking.ClassID, booking.ClientName, booking.ClientEmail).
		Scan(&booking.ID, &booking.BookingTime); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateBooking
		}
		return err
	}

	return tx.Commit(ctx)
}

// Cancel deletes the booking and returns its slot in one transaction.
// Returns the removed booking for event publishing.
func (r *PGBookingRepository) Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var b domain.Booking
	row := tx.QueryRow(ctx, `DELETE FROM bookings WHERE id=$1 RETURNING id, class_id, client_name, client_email, booking_time`, bookingID)
	if err := row.Scan(&b.ID, &b.ClassID, &b.ClientName, &b.ClientEmail, &b.BookingTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	if err := r.ledger.Release(ctx, tx, b.ClassID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByEmail returns the client's bookings, newest first, each with its
// class embedded.
func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.class_id, b.client_name, b.client_email, b.booking_time,
		c.id, c.name, c.date_time, c.instructor, c.total_slots, c.available_slots
		FROM bookings b
		JOIN fitness_classes c ON c.id = b.class_id
		WHERE b.client_email = $1
		ORDER BY b.booking_time DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		var c domain.FitnessClass
		if err := rows.Scan(&b.ID, &b.ClassID, &b.ClientName, &b.ClientEmail, &b.BookingTime,
			&c.ID, &c.Name, &c.DateTime, &c.Instructor, &c.TotalSlots, &c.AvailableSlots); err != nil {
			return nil, err
		}
		b.Class = &c
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
