package migrations

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockMigrator(t *testing.T, migrations []Migration) (*Migrator, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewWithMigrations(sqlx.NewDb(db, "sqlmock"), migrations, nil), mock, func() { db.Close() }
}

func demoMigrations() []Migration {
	return []Migration{
		{Version: 2, Name: "add_index", UpSQL: "CREATE INDEX demo_idx ON demo (id)", DownSQL: "DROP INDEX demo_idx"},
		{Version: 1, Name: "create_demo", UpSQL: "CREATE TABLE demo (id INT)", DownSQL: "DROP TABLE demo"},
	}
}

func TestLoadPairsFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_second.up.sql":   {Data: []byte("SELECT 2")},
		"000001_first.up.sql":    {Data: []byte("SELECT 1")},
		"000001_first.down.sql":  {Data: []byte("SELECT -1")},
		"README.md":              {Data: []byte("ignored")},
		"000002_second.down.sql": {Data: []byte("SELECT -2")},
	}
	migs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, Migration{Version: 1, Name: "first", UpSQL: "SELECT 1", DownSQL: "SELECT -1"}, migs[0])
	assert.Equal(t, 2, migs[1].Version)
}

func TestLoadRejectsMissingUp(t *testing.T) {
	_, err := Load(fstest.MapFS{"000001_first.down.sql": {Data: []byte("SELECT 1")}})
	assert.Error(t, err)

	_, err = Load(fstest.MapFS{"abc_first.up.sql": {Data: []byte("SELECT 1")}})
	assert.Error(t, err)
}

func TestEmbeddedSchemaDeclaresConstraints(t *testing.T) {
	m, err := New(nil, nil)
	require.NoError(t, err)
	migs := m.Migrations()
	require.NotEmpty(t, migs)
	assert.Equal(t, 1, migs[0].Version)

	schema := migs[0].UpSQL
	assert.Contains(t, schema, "CHECK (gender IN ('male', 'female'))")
	assert.Contains(t, schema, "REFERENCES schools(id) ON DELETE CASCADE")
	assert.Contains(t, schema, "REFERENCES student_classes(id) ON DELETE SET NULL")
	assert.Contains(t, schema, "CONSTRAINT subjects_name_key UNIQUE (name)")

	byName := map[string]Migration{}
	for _, mig := range migs {
		byName[mig.Name] = mig
	}
	lower, ok := byName["unique_lower_names"]
	require.True(t, ok)
	for _, index := range []string{"idx_subjects_lower_name", "idx_schools_lower_name", "idx_student_classes_lower_name", "idx_academic_terms_lower_name", "idx_academic_sessions_lower_name", "idx_users_lower_username"} {
		assert.Contains(t, lower.UpSQL, "CREATE UNIQUE INDEX "+index, index)
	}
	subjects, ok := byName["user_subjects"]
	require.True(t, ok)
	assert.Contains(t, subjects.UpSQL, "REFERENCES subjects(id) ON DELETE CASCADE")
	assert.Contains(t, subjects.UpSQL, "PRIMARY KEY (user_id, subject_id)")

	for _, mig := range migs {
		assert.NotEmpty(t, mig.DownSQL, mig.Name)
	}
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	m, mock, cleanup := newMockMigrator(t, demoMigrations())
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).AddRow(1, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX demo_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2, "add_index").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	count, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpRollsBackFailedVersion(t *testing.T) {
	m, mock, cleanup := newMockMigrator(t, demoMigrations())
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE demo").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	count, err := m.Up(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownRollsBackNewestFirst(t *testing.T) {
	m, mock, cleanup := newMockMigrator(t, demoMigrations())
	defer cleanup()

	now := time.Now()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).AddRow(1, now).AddRow(2, now))
	mock.ExpectBegin()
	mock.ExpectExec("DROP INDEX demo_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schema_migrations").WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, err := m.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownWithNothingApplied(t *testing.T) {
	m, mock, cleanup := newMockMigrator(t, demoMigrations())
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}))

	_, err := m.Down(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNothingToRollback)

	_, err = m.Down(context.Background(), 0)
	assert.Error(t, err)
}

func TestStatusMarksApplied(t *testing.T) {
	m, mock, cleanup := newMockMigrator(t, demoMigrations())
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).AddRow(1, time.Now()))

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.NotNil(t, statuses[0].AppliedAt)
	assert.False(t, statuses[1].Applied)
	assert.Equal(t, "add_index", statuses[1].Name)
}
