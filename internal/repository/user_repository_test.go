package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/database"
)

var userRowColumns = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "role", "gender", "is_active", "student_class_id", "last_login", "date_joined", "updated_at"}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "ada", "ada@example.com", "hash", "Ada", "Obi", string(models.RoleStudent), "female", true, "c1", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("ada").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.String())
	assert.Equal(t, models.GenderFemale, user.Gender)
	require.NotNil(t, user.StudentClassID)
	assert.Equal(t, "c1", *user.StudentClassID)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	role := models.RoleStudent
	active := true
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "ada", "", "hash", "Ada", "Obi", string(role), "female", true, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE 1=1 AND role = $1 AND is_active = $2 AND (LOWER(username) LIKE $3 OR LOWER(first_name || ' ' || last_name) LIKE $3) ORDER BY username ASC LIMIT 20 OFFSET 0")).
		WithArgs(role, true, "%ada%").
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(role, true, "%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role, Active: &active, Search: "Ada"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.Nil(t, users[0].StudentClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserRejectedByGenderCheck(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "users_gender_check"})

	err := repo.Create(context.Background(), &models.User{Username: "x", Gender: "other", PasswordHash: "h"})
	ce, ok := database.Constraint(err)
	require.True(t, ok)
	assert.Equal(t, database.KindCheck, ce.Kind)
	assert.Equal(t, "users_gender_check", ce.Constraint)
}

func TestSetStudentClassClears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET student_class_id = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStudentClass(context.Background(), "u1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_class_id = $1 ORDER BY last_name ASC")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("1", "ada", "", "hash", "Ada", "Obi", "STUDENT", "female", true, "c1", nil, now, now).
			AddRow("2", "bayo", "", "hash", "Bayo", "Ude", "STUDENT", "male", true, "c1", nil, now, now))

	users, err := repo.ListByClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{UserID: "u1", Token: "token", ExpiresAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshTokenOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	query := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE")
	mock.ExpectExec(query).WithArgs("t1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("t1", now).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "t1", now))
	err := repo.RevokeRefreshToken(context.Background(), "t1", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubjectsJoinsAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects s JOIN user_subjects us ON us.subject_id = s.id WHERE us.user_id = $1 ORDER BY s.name ASC")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("s1", "Biology", now, now).
			AddRow("s2", "Chemistry", now, now))

	subjects, err := repo.ListSubjects(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Biology", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSubjectsRunsInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_subjects WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_subjects (user_id, subject_id, assigned_at) SELECT $1, unnest($2::uuid[]), $3")).
		WithArgs("u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceSubjects(context.Background(), "u1", []string{"s1", "s2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSubjectsEmptyOnlyClears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_subjects").WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceSubjects(context.Background(), "u1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSubjectsUnknownSubjectRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_subjects").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO user_subjects").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "user_subjects_subject_id_fkey"})
	mock.ExpectRollback()

	err := repo.ReplaceSubjects(context.Background(), "u1", []string{"missing"})
	ce, ok := database.Constraint(err)
	require.True(t, ok)
	assert.Equal(t, database.KindForeignKey, ce.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionDelete, Resource: "schools"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}
