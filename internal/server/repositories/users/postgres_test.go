package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectCols  = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRows(created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
		AddRow(int64(1), "alice", "alice@x.com", "$2a$hash", created)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "alice@x.com", "$2a$hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))

	u := &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "$2a$hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.UserName != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{"users_email_key", "email"},
		{"users_username_key", "username"},
		{"users_pkey", "user"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQuery).
				WithArgs("alice", "alice@x.com", "h").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"})

			var dup *common.DuplicateError
			if !errors.As(err, &dup) {
				t.Fatalf("want *common.DuplicateError, got %v", err)
			}
			if dup.Field != tt.field {
				t.Fatalf("field = %q, want %q", dup.Field, tt.field)
			}
			if !errors.Is(err, common.ErrorDuplicate) {
				t.Fatalf("want errors.Is ErrorDuplicate")
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "alice@x.com", "h").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetters_Found(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		where string
		arg   any
		call  func(r *PostgresRepository) (*models.User, error)
	}{
		{"by id", `WHERE\s+id\s*=\s*\$1\s*$`, int64(1), func(r *PostgresRepository) (*models.User, error) {
			return r.GetByID(context.Background(), 1)
		}},
		{"by email", `WHERE\s+email\s*=\s*\$1\s*$`, "alice@x.com", func(r *PostgresRepository) (*models.User, error) {
			return r.GetByEmail(context.Background(), "alice@x.com")
		}},
		{"by username", `WHERE\s+username\s*=\s*\$1\s*$`, "alice", func(r *PostgresRepository) (*models.User, error) {
			return r.GetByUsername(context.Background(), "alice")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(selectCols + tt.where).
				WithArgs(tt.arg).
				WillReturnRows(userRows(created))

			got, err := tt.call(repo)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got.ID != 1 || got.Email != "alice@x.com" || got.PasswordHash != "$2a$hash" {
				t.Fatalf("unexpected user: %+v", got)
			}
		})
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectCols + `WHERE\s+email\s*=\s*\$1\s*$`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectCols + `WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 5)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
