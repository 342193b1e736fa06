package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
)

func newMockCredRepo(t *testing.T) (*credentialRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := NewCredentialRepository(db, zap.NewNop())
	return repo, mock, func() { db.Close() }
}

func TestCredentialLoadAbsentIsNilNil(t *testing.T) {
	repo, mock, done := newMockCredRepo(t)
	defer done()

	mock.ExpectQuery(`FROM lazada_credentials\s+WHERE id = 1`).
		WillReturnError(sql.ErrNoRows)

	cred, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialLoadReturnsStored(t *testing.T) {
	repo, mock, done := newMockCredRepo(t)
	defer done()

	expires := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	updated := time.Now().Truncate(time.Second)
	rows := sqlmock.NewRows([]string{"access_token", "refresh_token", "expires_at", "updated_at"}).
		AddRow("access-abc", "refresh-def", expires, updated)

	mock.ExpectQuery(`FROM lazada_credentials\s+WHERE id = 1`).
		WillReturnRows(rows)

	cred, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "access-abc", cred.AccessToken)
	assert.Equal(t, "refresh-def", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.Equal(expires))
}

func TestCredentialReplaceIsSingleUpsert(t *testing.T) {
	repo, mock, done := newMockCredRepo(t)
	defer done()

	expires := time.Now().Add(7 * 24 * time.Hour)
	mock.ExpectExec(`(?s)INSERT INTO lazada_credentials.+ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("access-new", "refresh-new", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Replace(context.Background(), &domain.Credential{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		ExpiresAt:    expires,
	})
	require.NoError(t, err)

	// The whole triple goes through one statement, nothing else
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialReplaceStampsUpdatedAt(t *testing.T) {
	repo, mock, done := newMockCredRepo(t)
	defer done()

	mock.ExpectExec(`INSERT INTO lazada_credentials`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cred := &domain.Credential{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now()}
	require.NoError(t, repo.Replace(context.Background(), cred))
	assert.False(t, cred.UpdatedAt.IsZero())
}
