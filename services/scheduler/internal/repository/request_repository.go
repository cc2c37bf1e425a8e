package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRepository interface {
	Create(ctx context.Context, r domain.BookingRequest) (*domain.BookingRequest, error)
	GetByID(ctx context.Context, id string) (*domain.BookingRequest, error)
	List(ctx context.Context) ([]domain.BookingRequest, error)
	Update(ctx context.Context, r domain.BookingRequest) (*domain.BookingRequest, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestCols = `id, full_name, email, phone, team_size,
preferred_start, preferred_end,
scheduled_at, meeting_link, attended_at,
status, created_at, updated_at`

const queryTimeout = 3 * time.Second

func (r *requestRepository) Create(ctx context.Context, req domain.BookingRequest) (*domain.BookingRequest, error) {
	const q = `INSERT INTO demo_requests (
		id, full_name, email, phone, team_size,
		preferred_start, preferred_end, status
	) VALUES ($1,$2,$3,$4,$5,$6,$7,'pending')
	RETURNING ` + requestCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanRequest(r.pool.QueryRow(ctx, q, uuid.NewString(),
		req.FullName, req.Email, req.Phone, req.TeamSize,
		req.PreferredStart, req.PreferredEnd,
	))
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	const q = `SELECT ` + requestCols + ` FROM demo_requests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanRequest(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// List returns the whole collection, newest first.
func (r *requestRepository) List(ctx context.Context) ([]domain.BookingRequest, error) {
	const q = `SELECT ` + requestCols + ` FROM demo_requests ORDER BY created_at DESC, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingRequest
	for rows.Next() {
		b, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Update writes every mutable column. Concurrent writers overwrite each other.
func (r *requestRepository) Update(ctx context.Context, req domain.BookingRequest) (*domain.BookingRequest, error) {
	if _, err := uuid.Parse(req.ID); err != nil {
		return nil, nil
	}
	const q = `UPDATE demo_requests SET
		full_name=$2, email=$3, phone=$4, team_size=$5,
		scheduled_at=$6, meeting_link=$7, attended_at=$8,
		status=$9, updated_at=now()
	WHERE id=$1
	RETURNING ` + requestCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanRequest(r.pool.QueryRow(ctx, q, req.ID,
		req.FullName, req.Email, req.Phone, req.TeamSize,
		req.ScheduledAt, req.MeetingLink, req.AttendedAt,
		string(req.Status),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *requestRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	const q = `DELETE FROM demo_requests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanRequest(row pgx.Row) (*domain.BookingRequest, error) {
	var (
		b      domain.BookingRequest
		status string
	)
	err := row.Scan(
		&b.ID, &b.FullName, &b.Email, &b.Phone, &b.TeamSize,
		&b.PreferredStart, &b.PreferredEnd,
		&b.ScheduledAt, &b.MeetingLink, &b.AttendedAt,
		&status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = domain.RequestStatus(status)
	b.PreferredStart = asLocal(b.PreferredStart)
	b.PreferredEnd = asLocal(b.PreferredEnd)
	if b.ScheduledAt != nil {
		t := asLocal(*b.ScheduledAt)
		b.ScheduledAt = &t
	}
	if b.AttendedAt != nil {
		t := asLocal(*b.AttendedAt)
		b.AttendedAt = &t
	}
	return &b, nil
}

// asLocal reinterprets a zoneless DATE or TIMESTAMP value, which pgx returns
// as UTC, as the same wall clock in the process's local zone.
func asLocal(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
