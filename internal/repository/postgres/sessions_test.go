package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/core/domain"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/repository"
)

func newSessionMock(t *testing.T) (pgxmock.PgxPoolIface, *SessionRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewSessionRepository(mock)
}

func TestSessionRepository_Create(t *testing.T) {
	mock, repo := newSessionMock(t)

	loginAt := time.Now().UTC()
	deviceName := "Pixel 8"
	userAgent := "Mozilla/5.0"
	ip := "198.51.100.10"

	session := domain.Session{
		ID:               "session-1",
		UserID:           "user-1",
		RefreshTokenHash: "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		DeviceType:       domain.DeviceTypeMobile,
		DeviceName:       &deviceName,
		UserAgent:        &userAgent,
		IPAddress:        &ip,
		LoginAt:          loginAt,
	}

	mock.ExpectExec(`INSERT INTO auth\.sessions`).
		WithArgs(
			session.ID,
			session.UserID,
			session.RefreshTokenHash,
			session.DeviceType,
			session.DeviceName,
			session.UserAgent,
			session.IPAddress,
			session.LoginAt,
			(*time.Time)(nil),
			false,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_Get(t *testing.T) {
	mock, repo := newSessionMock(t)

	loginAt := time.Now().UTC()
	deviceName := "MacBook"

	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"session-1", "user-1", "hash-1", domain.DeviceTypeLaptop, &deviceName, nil, nil, loginAt, nil, false,
	)

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).WithArgs("session-1").WillReturnRows(rows)

	session, err := repo.Get(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if session.ID != "session-1" || session.UserID != "user-1" {
		t.Fatalf("unexpected session identity: %+v", session)
	}
	if session.DeviceType != domain.DeviceTypeLaptop {
		t.Fatalf("expected laptop device type, got %s", session.DeviceType)
	}
	if session.DeviceName == nil || *session.DeviceName != deviceName {
		t.Fatalf("expected device name to match")
	}
	if !session.IsActive() {
		t.Fatalf("expected session to be active")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_GetNotFound(t *testing.T) {
	mock, repo := newSessionMock(t)

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_RotateRefreshHash(t *testing.T) {
	mock, repo := newSessionMock(t)

	mock.ExpectExec(`UPDATE auth\.sessions SET refresh_token_hash`).
		WithArgs("hash-new", "session-1", false, "hash-old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.RotateRefreshHash(context.Background(), "session-1", "hash-old", "hash-new")
	if err != nil {
		t.Fatalf("RotateRefreshHash returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RotateRefreshHashConflict(t *testing.T) {
	mock, repo := newSessionMock(t)

	loginAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.sessions SET refresh_token_hash`).
		WithArgs("hash-new", "session-1", false, "hash-old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"session-1", "user-1", "hash-other", domain.DeviceTypeUnknown, nil, nil, nil, loginAt, nil, false,
	)
	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).WithArgs("session-1").WillReturnRows(rows)

	err := repo.RotateRefreshHash(context.Background(), "session-1", "hash-old", "hash-new")
	if !errors.Is(err, repository.ErrRotationConflict) {
		t.Fatalf("expected ErrRotationConflict, got %v", err)
	}
}

func TestSessionRepository_RotateRefreshHashRevoked(t *testing.T) {
	mock, repo := newSessionMock(t)

	loginAt := time.Now().UTC()
	logoutAt := loginAt.Add(time.Hour)

	mock.ExpectExec(`UPDATE auth\.sessions SET refresh_token_hash`).
		WithArgs("hash-new", "session-1", false, "hash-old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"session-1", "user-1", "hash-old", domain.DeviceTypeUnknown, nil, nil, nil, loginAt, &logoutAt, true,
	)
	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).WithArgs("session-1").WillReturnRows(rows)

	err := repo.RotateRefreshHash(context.Background(), "session-1", "hash-old", "hash-new")
	if !errors.Is(err, repository.ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestSessionRepository_RotateRefreshHashMissing(t *testing.T) {
	mock, repo := newSessionMock(t)

	mock.ExpectExec(`UPDATE auth\.sessions SET refresh_token_hash`).
		WithArgs("hash-new", "missing", false, "hash-old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	err := repo.RotateRefreshHash(context.Background(), "missing", "hash-old", "hash-new")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_Revoke(t *testing.T) {
	mock, repo := newSessionMock(t)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.sessions SET is_revoked`).
		WithArgs(true, at, "session-1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Revoke(context.Background(), "session-1", at); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RevokeIdempotent(t *testing.T) {
	mock, repo := newSessionMock(t)

	at := time.Now().UTC()
	loginAt := at.Add(-time.Hour)
	logoutAt := at.Add(-time.Minute)

	mock.ExpectExec(`UPDATE auth\.sessions SET is_revoked`).
		WithArgs(true, at, "session-1", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	rows := pgxmock.NewRows(sessionColumns).AddRow(
		"session-1", "user-1", "hash-1", domain.DeviceTypeUnknown, nil, nil, nil, loginAt, &logoutAt, true,
	)
	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).WithArgs("session-1").WillReturnRows(rows)

	if err := repo.Revoke(context.Background(), "session-1", at); err != nil {
		t.Fatalf("expected idempotent revoke to succeed, got %v", err)
	}
}

func TestSessionRepository_RevokeMissing(t *testing.T) {
	mock, repo := newSessionMock(t)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.sessions SET is_revoked`).
		WithArgs(true, at, "missing", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	if err := repo.Revoke(context.Background(), "missing", at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_RevokeAllForUser(t *testing.T) {
	mock, repo := newSessionMock(t)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.sessions SET is_revoked`).
		WithArgs(true, at, false, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := repo.RevokeAllForUser(context.Background(), "user-1", at)
	if err != nil {
		t.Fatalf("RevokeAllForUser returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", count)
	}
}

func TestSessionRepository_ListByUser(t *testing.T) {
	mock, repo := newSessionMock(t)

	now := time.Now().UTC()
	earlier := now.Add(-2 * time.Hour)
	logoutAt := now.Add(-time.Hour)

	rows := pgxmock.NewRows(sessionColumns).
		AddRow("session-2", "user-1", "hash-2", domain.DeviceTypeMobile, nil, nil, nil, now, nil, false).
		AddRow("session-1", "user-1", "hash-1", domain.DeviceTypeLaptop, nil, nil, nil, earlier, &logoutAt, true)

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions .*ORDER BY login_at DESC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	sessions, err := repo.ListByUser(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "session-2" || sessions[1].ID != "session-1" {
		t.Fatalf("expected newest-first ordering, got %s then %s", sessions[0].ID, sessions[1].ID)
	}
	if sessions[1].LogoutAt == nil || !sessions[1].IsRevoked {
		t.Fatalf("expected second session to carry revocation state")
	}
}

func TestSessionRepository_ListByUserActiveOnly(t *testing.T) {
	mock, repo := newSessionMock(t)

	now := time.Now().UTC()

	rows := pgxmock.NewRows(sessionColumns).
		AddRow("session-2", "user-1", "hash-2", domain.DeviceTypeMobile, nil, nil, nil, now, nil, false)

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions`).
		WithArgs("user-1", false).
		WillReturnRows(rows)

	sessions, err := repo.ListByUser(context.Background(), "user-1", true)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "session-2" {
		t.Fatalf("expected only the active session, got %+v", sessions)
	}
}
