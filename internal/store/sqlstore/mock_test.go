package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := open(postgres.New(postgres.Config{Conn: db}), "postgres", false)
	require.NoError(t, err)
	return s, mock
}

func TestPingFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.Error(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsQueryFailure(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectQuery(`SELECT .* FROM "posts"`).WillReturnError(boom)

	_, err := s.ListPosts(context.Background(), models.PostFilter{City: "London"})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password"}))

	_, err := s.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
