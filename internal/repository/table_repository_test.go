package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func TestTableRepo_DeleteIfIdle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTableRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("NOT EXISTS")).WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("NOT EXISTS")).WithArgs(uint64(2)).WillReturnResult(sqlmock.NewResult(0, 1))

	if ok, err := repo.DeleteIfIdle(context.Background(), 1); err != nil || ok {
		t.Fatalf("busy table: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.DeleteIfIdle(context.Background(), 2); err != nil || !ok {
		t.Fatalf("idle table: ok=%v err=%v", ok, err)
	}
}

func TestTableRepo_CreateDuplicateNumber(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTableRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO restaurant_tables")).
		WithArgs(uint32(5), uint32(4), model.TableStandard, model.TableAvailable).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '5' for key 'restaurant_tables.uniq_number'"})

	err := repo.Create(context.Background(), &model.Table{Number: 5, Seats: 4, Type: model.TableStandard, Status: model.TableAvailable})
	if !errors.Is(err, ErrTableNumberExists) {
		t.Fatalf("expected ErrTableNumberExists, got %v", err)
	}
}

func TestTableRepo_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTableRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM restaurant_tables WHERE type = ? AND seats = ? ORDER BY number")).
		WithArgs(model.TableVIP, uint32(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "seats", "type", "status", "created_at", "updated_at"}))

	if _, err := repo.List(context.Background(), model.TableFilter{Type: model.TableVIP, Seats: 4}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestUserRepo_VerifyUnknownToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_verified=TRUE, verification_token=NULL WHERE verification_token=?")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Verify(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestUserConflict(t *testing.T) {
	phone := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '555' for key 'users.uniq_phone'"}
	email := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.uniq_email'"}
	other := errors.New("boom")
	if !errors.Is(userConflict(phone), ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists")
	}
	if !errors.Is(userConflict(email), ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists")
	}
	if userConflict(other) != other {
		t.Fatalf("non-duplicate errors must pass through")
	}
}

func TestTokenRepoRevokeAndPurge(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM refresh_tokens")).
		WithArgs("h1").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.ValidateRefresh(context.Background(), "h1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("ValidateRefresh err = %v, want sql.ErrNoRows", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	if err := repo.RevokeAllForUser(context.Background(), 7); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}

	cutoff := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.PurgeExpired(context.Background(), cutoff)
	if err != nil || n != 3 {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
}
