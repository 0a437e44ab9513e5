package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const meetingColumns = `id, workspace_id, name, company, scheduled_time, status`

// MeetingRepository implements domain.MeetingRepository using PostgreSQL
type MeetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository creates a new MeetingRepository
func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

// Create inserts a meeting and returns the stored row
func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO meetings (workspace_id, name, company, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+meetingColumns,
		meeting.WorkspaceID, meeting.Name, meeting.Company, timeToPgTimestamptz(meeting.ScheduledTime), meeting.Status)
	return scanMeeting(row)
}

// Update writes every mutable field of a meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) (*domain.Meeting, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE meetings SET name = $3, company = $4, scheduled_time = $5, status = $6
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+meetingColumns,
		meeting.WorkspaceID, meeting.ID, meeting.Name, meeting.Company, timeToPgTimestamptz(meeting.ScheduledTime), meeting.Status)
	updated, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

// Delete removes a meeting within a workspace
func (r *MeetingRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meetings WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all meetings of a workspace, soonest first
func (r *MeetingRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Meeting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+meetingColumns+`
		FROM meetings
		WHERE workspace_id = $1
		ORDER BY scheduled_time ASC, id ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Meeting, error) {
		return scanMeeting(row)
	})
}

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var (
		m         domain.Meeting
		scheduled pgtype.Timestamptz
	)
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Company, &scheduled, &m.Status); err != nil {
		return nil, err
	}
	m.ScheduledTime = pgTimestamptzToTime(scheduled)
	return &m, nil
}
