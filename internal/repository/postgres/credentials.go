package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
)

type credentialRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *sql.DB, logger *zap.Logger) *credentialRepository {
	return &credentialRepository{
		db:     db,
		logger: logger,
	}
}

func (r *credentialRepository) Load(ctx context.Context) (*domain.Credential, error) {
	query := `
		SELECT access_token, refresh_token, expires_at, updated_at
		FROM lazada_credentials
		WHERE id = 1
	`

	var cred domain.Credential
	err := r.db.QueryRowContext(ctx, query).Scan(
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
		&cred.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load Lazada credential", zap.Error(err))
		return nil, err
	}

	return &cred, nil
}

// Replace writes the full token triple in a single upsert so the stored
// credential is never left in a partially updated state.
func (r *credentialRepository) Replace(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO lazada_credentials (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	cred.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		cred.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to replace Lazada credential", zap.Error(err))
		return err
	}

	return nil
}
