package repository

import (
	"context"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// SlotLedger is the only writer of fitness_classes.available_slots. Both
// methods run inside a caller-owned transaction; the caller must hold the
// class row lock so the read-modify-write serializes per class.
type SlotLedger struct{}

func NewSlotLedger() *SlotLedger {
	return &SlotLedger{}
}

// Reserve takes one slot. The conditional update matches zero rows either
// when the class does not exist or when it is fully booked; a follow-up
// read tells the two apart.
func (l *SlotLedger) Reserve(ctx context.Context, tx pgx.Tx, classID int64) error {
	cmd, err := tx.Exec(ctx, `UPDATE fitness_classes SET available_slots = available_slots - 1, updated_at = now() WHERE id = $1 AND available_slots > 0`, classID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return l.classMissingOr(ctx, tx, classID, domain.ErrNoSlots)
	}
	return nil
}

// Release returns one slot. Releasing past total_slots is refused and
// surfaced as ErrSlotOverflow rather than silently absorbed.
func (l *SlotLedger) Release(ctx context.Context, tx pgx.Tx, classID int64) error {
	cmd, err := tx.Exec(ctx, `UPDATE fitness_classes SET available_slots = available_slots + 1, updated_at = now() WHERE id = $1 AND available_slots < total_slots`, classID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return l.classMissingOr(ctx, tx, classID, domain.ErrSlotOverflow)
	}
	return nil
}

func (l *SlotLedger) classMissingOr(ctx context.Context, tx pgx.Tx, classID int64, fallback error) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fitness_classes WHERE id = $1)`, classID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrClassNotFound
	}
	return fallback
}
