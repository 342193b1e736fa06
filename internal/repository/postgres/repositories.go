package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Inventory:  NewInventoryRepository(db, logger),
		Credential: NewCredentialRepository(db, logger),
	}
}
