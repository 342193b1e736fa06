package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kelvintan1101/erp/internal/domain"
)

// InventoryRepository defines inventory item data access methods
type InventoryRepository interface {
	List(ctx context.Context) ([]*domain.InventoryItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	GetBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error)
	GetByLazadaItemID(ctx context.Context, lazadaItemID string) (*domain.InventoryItem, error)
	// ListLinked returns items that already have a Lazada listing
	// (non-null lazada_item_id), in creation order.
	ListLinked(ctx context.Context) ([]*domain.InventoryItem, error)
	Create(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CredentialRepository defines access to the single stored Lazada credential
type CredentialRepository interface {
	// Load returns the stored credential, or (nil, nil) when none has ever
	// been granted.
	Load(ctx context.Context) (*domain.Credential, error)
	// Replace stores the credential wholesale. All three fields are written
	// in one statement so no partial credential state is ever persisted.
	Replace(ctx context.Context, cred *domain.Credential) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Inventory  InventoryRepository
	Credential CredentialRepository
}
