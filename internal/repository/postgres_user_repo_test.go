package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID       = "7b0e5f1c-3c2a-4d8e-9f10-2a6b1c4d5e01"
	otherUserID      = "7b0e5f1c-3c2a-4d8e-9f10-2a6b1c4d5e02"
	testTournamentID = "0c9a4b7e-1f2d-4e3a-8b5c-6d7e8f901201"
	testDayID        = "5d2e7f40-8a1b-4c6d-9e0f-1a2b3c4d5e01"
	otherDayID       = "5d2e7f40-8a1b-4c6d-9e0f-1a2b3c4d5e02"
	missingID        = "00000000-0000-4000-8000-000000000000"
)

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name",
	"role", "is_active", "created_at", "updated_at",
}

// newMockDB はsqlmock付きの*sql.DBを返す。
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRow(id, email, role string, active bool) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, email, "$2a$10$hash", "Kim", "Lee", role, active, now, now)
}

func TestPostgresUserRepo_FindByEmail(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantUser  bool
		wantErr   bool
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
					WithArgs("coach@example.com").
					WillReturnRows(userRow(testUserID, "coach@example.com", "operator", true))
			},
			wantUser: true,
		},
		{
			name: "not found returns nil without error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
					WithArgs("coach@example.com").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "unknown stored role is an error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
					WithArgs("coach@example.com").
					WillReturnRows(userRow(testUserID, "coach@example.com", "guest", true))
			},
			wantErr: true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
					WithArgs("coach@example.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresUserRepo(db)
			tt.setupMock(mock)

			user, err := repo.FindByEmail(context.Background(), "coach@example.com")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantUser {
				require.NotNil(t, user)
				assert.Equal(t, model.RoleOperator, user.Role)
				assert.True(t, user.IsActive)
			} else {
				assert.Nil(t, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresUserRepo_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(testUserID).
		WillReturnRows(userRow(testUserID, "admin@example.com", "super_admin", true))

	user, err := repo.FindByID(context.Background(), testUserID)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, model.RoleSuperAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_Create(t *testing.T) {
	now := time.Now()
	user := &model.User{
		ID:           testUserID,
		Email:        "coach@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Kim",
		LastName:     "Lee",
		Role:         model.RoleCoachingStaff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tests := []struct {
		name       string
		execErr    error
		wantErr    error
		wantAnyErr bool
	}{
		{name: "success"},
		{name: "duplicate email", execErr: &pq.Error{Code: "23505"}, wantErr: ErrDuplicateEmail},
		{name: "other error", execErr: errors.New("disk full"), wantAnyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresUserRepo(db)

			exp := mock.ExpectExec(`INSERT INTO users`).
				WithArgs(testUserID, "coach@example.com", "$2a$10$hash", "Kim", "Lee",
					"coaching_staff", true, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := repo.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrDuplicateEmail)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresUserRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(otherUserID, "b@example.com", "h", "B", "B", "admin", true, now, now).
		AddRow(testUserID, "a@example.com", "h", "A", "A", "operator", false, now, now)
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC`).WillReturnRows(rows)

	users, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, otherUserID, users[0].ID)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.False(t, users[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_UpdateRole(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "updated", affected: 1, want: true},
		{name: "missing user", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresUserRepo(db)

			mock.ExpectExec(`UPDATE users SET role = \$2`).
				WithArgs(testUserID, "admin").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.UpdateRole(context.Background(), testUserID, model.RoleAdmin)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresUserRepo_UpdateActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`UPDATE users SET is_active = \$2`).
		WithArgs(testUserID, false).
		WillReturnError(errors.New("timeout"))

	ok, err := repo.UpdateActive(context.Background(), testUserID, false)

	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserRepo_MalformedID_SkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	user, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Nil(t, user)

	ok, err := repo.UpdateRole(context.Background(), "not-a-uuid", model.RoleAdmin)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateActive(context.Background(), "1; DROP TABLE users", false)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
