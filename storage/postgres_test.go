package storage

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS dashboard_storage").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewPostgres(db, "kiosk-1")
	require.NoError(t, err)
	return s, mock
}

func TestNewPostgresValidates(t *testing.T) {
	_, err := NewPostgres(nil, "default")
	require.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewPostgres(db, " ")
	require.Error(t, err)
}

func TestPostgresGetItem(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT value FROM dashboard_storage").
		WithArgs("kiosk-1", "login_key").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("abc"))

	v, ok, err := s.GetItem("login_key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)

	mock.ExpectQuery("SELECT value FROM dashboard_storage").
		WithArgs("kiosk-1", "user_id").
		WillReturnError(sql.ErrNoRows)

	_, ok, err = s.GetItem("user_id")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetAndRemove(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO dashboard_storage").
		WithArgs("kiosk-1", "user_id", "7").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM dashboard_storage").
		WithArgs("kiosk-1", "user_id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetItem("user_id", "7"))
	require.NoError(t, s.RemoveItem("user_id"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresErrorsAreWrapped(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO dashboard_storage").WillReturnError(errors.New("disk full"))
	err := s.SetItem("login_key", "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert storage item")

	mock.ExpectQuery("SELECT value FROM dashboard_storage").WillReturnError(errors.New("connection reset"))
	_, _, err = s.GetItem("login_key")
	require.Error(t, err)
	require.Contains(t, err.Error(), "query storage item")
}
