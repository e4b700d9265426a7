package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricirt/hello-game/internal/repository"
)

var insertRE = regexp.QuoteMeta("INSERT INTO game_submissions (name, submitted_at)")

func TestSQLSession_InsertSubmission(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(insertRE).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "submitted_at"}).AddRow(7, "Alice", now))
	mock.ExpectCommit()

	sess, err := repository.NewSQLSessionFactory(sqlDB).Connect(context.Background())
	require.NoError(t, err)

	sub, err := sess.InsertSubmission(context.Background(), "Alice")
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	assert.Equal(t, int64(7), sub.ID)
	assert.Equal(t, "Alice", sub.Name)
	assert.Equal(t, now, sub.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_InsertFailureRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(insertRE).WithArgs("Bob").WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	sess, err := repository.NewSQLSessionFactory(sqlDB).Connect(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.InsertSubmission(context.Background(), "Bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSession_CloseIsIdempotent(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	sess, err := repository.NewSQLSessionFactory(sqlDB).Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
}
