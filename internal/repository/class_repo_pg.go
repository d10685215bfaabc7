package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClassRepository interface {
	ListUpcoming(ctx context.Context, from time.Time) ([]domain.FitnessClass, error)
	GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error)
}

type PGClassRepository struct {
	db *pgxpool.Pool
}

func NewClassRepository(db *pgxpool.Pool) ClassRepository {
	return &PGClassRepository{db: db}
}

// ListUpcoming returns classes that have not started yet and still have
// capacity, soonest first. Read-only, no locks.
func (r *PGClassRepository) ListUpcoming(ctx context.Context, from time.Time) ([]domain.FitnessClass, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, date_time, instructor, total_slots, available_slots, created_at, updated_at FROM fitness_classes WHERE date_time >= $1 AND available_slots > 0 ORDER BY date_time`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]domain.FitnessClass, 0)
	for rows.Next() {
		var c domain.FitnessClass
		if err := rows.Scan(&c.ID, &c.Name, &c.DateTime, &c.Instructor, &c.TotalSlots, &c.AvailableSlots, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *PGClassRepository) GetByID(ctx context.Context, id int64) (*domain.FitnessClass, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, date_time, instructor, total_slots, available_slots, created_at, updated_at FROM fitness_classes WHERE id=$1`, id)
	var c domain.FitnessClass
	if err := row.Scan(&c.ID, &c.Name, &c.DateTime, &c.Instructor, &c.TotalSlots, &c.AvailableSlots, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

var _ ClassRepository = (*PGClassRepository)(nil)
