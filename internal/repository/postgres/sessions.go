package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/port"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var sessionColumns = []string{
	"id",
	"user_id",
	"refresh_token_hash",
	"device_type",
	"device_name",
	"user_agent",
	"ip_address",
	"login_at",
	"logout_at",
	"is_revoked",
}

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	repo := &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("auth.sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.RefreshTokenHash,
			session.DeviceType,
			session.DeviceName,
			session.UserAgent,
			session.IPAddress,
			session.LoginAt,
			session.LogoutAt,
			session.IsRevoked,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Get returns a session by identifier.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("auth.sessions").
		Where(squirrel.Eq{"id": sessionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	return r.scanSession(r.exec.QueryRow(ctx, stmt, args...))
}

// RotateRefreshHash swaps the stored refresh token hash in a single
// compare-and-set statement. The update only lands when the session still
// holds previousHash and has not been revoked, so concurrent rotations and
// a racing revoke can never both win. When the guard fails the session is
// re-read once to report why:
//
//   - repository.ErrNotFound        the session does not exist
//   - repository.ErrSessionRevoked  the session was revoked meanwhile
//   - repository.ErrRotationConflict  another rotation replaced the hash first
func (r *SessionRepository) RotateRefreshHash(ctx context.Context, sessionID, previousHash, newHash string) error {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("refresh_token_hash", newHash).
		Where(squirrel.Eq{
			"id":                 sessionID,
			"refresh_token_hash": previousHash,
			"is_revoked":         false,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build rotate refresh hash sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("rotate refresh hash: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsRevoked {
		return repository.ErrSessionRevoked
	}
	return repository.ErrRotationConflict
}

// Revoke marks a session as revoked and stamps its logout time. Revoking an
// already revoked session is a no-op; the original logout time is preserved.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string, at time.Time) error {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("is_revoked", true).
		Set("logout_at", at).
		Where(squirrel.Eq{
			"id":         sessionID,
			"is_revoked": false,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.Get(ctx, sessionID); err != nil {
		return err
	}
	return nil
}

// RevokeAllForUser revokes every active session of a user in one statement
// and reports how many sessions were affected.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("auth.sessions").
		Set("is_revoked", true).
		Set("logout_at", at).
		Where(squirrel.Eq{
			"user_id":    userID,
			"is_revoked": false,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke sessions for user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ListByUser returns the user's sessions newest first. With activeOnly set,
// revoked sessions are filtered out.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Session, error) {
	query := r.builder.
		Select(sessionColumns...).
		From("auth.sessions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("login_at DESC")

	if activeOnly {
		query = query.Where(squirrel.Eq{"is_revoked": false})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (*domain.Session, error) {
	session, err := scanSessionRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func scanSessionRow(row pgx.Row) (*domain.Session, error) {
	var session domain.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.DeviceType,
		&session.DeviceName,
		&session.UserAgent,
		&session.IPAddress,
		&session.LoginAt,
		&session.LogoutAt,
		&session.IsRevoked,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &session, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
