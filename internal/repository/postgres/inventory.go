package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

type inventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB, logger *zap.Logger) *inventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger,
	}
}

const inventoryColumns = `
	id, sku, name, description, price, quantity, category, images,
	lazada_item_id, last_synced_at, sync_status, sync_errors,
	created_at, updated_at`

func (r *inventoryRepository) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list inventory items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *inventoryRepository) ListLinked(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE lazada_item_id IS NOT NULL AND lazada_item_id <> ''
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list linked inventory items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *inventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "inventory item", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by ID", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) GetBySKU(ctx context.Context, sku string) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE sku = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, sku))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "inventory item", ID: sku}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by SKU", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) GetByLazadaItemID(ctx context.Context, lazadaItemID string) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_items
		WHERE lazada_item_id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, lazadaItemID))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "inventory item", ID: lazadaItemID}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item by Lazada item ID", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, sku, name, description, price, quantity, category, images,
			lazada_item_id, last_synced_at, sync_status, sync_errors,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.SyncStatus == "" {
		item.SyncStatus = domain.SyncStatusNotSynced
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.SKU,
		item.Name,
		item.Description,
		item.Price,
		item.Quantity,
		item.Category,
		pq.Array(item.Images),
		item.LazadaItemID,
		item.LastSyncedAt,
		string(item.SyncStatus),
		pq.Array(item.SyncErrors),
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create inventory item", zap.Error(err), zap.String("sku", item.SKU))
		return err
	}

	return nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $2, description = $3, price = $4, quantity = $5,
			category = $6, images = $7, lazada_item_id = $8,
			last_synced_at = $9, sync_status = $10, sync_errors = $11,
			updated_at = $12
		WHERE id = $1
	`

	item.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.Quantity,
		item.Category,
		pq.Array(item.Images),
		item.LazadaItemID,
		item.LastSyncedAt,
		string(item.SyncStatus),
		pq.Array(item.SyncErrors),
		item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update inventory item", zap.Error(err), zap.String("sku", item.SKU))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apperrors.ErrNotFound{Resource: "inventory item", ID: item.ID.String()}
	}

	return nil
}

func (r *inventoryRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET quantity = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + inventoryColumns

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, quantity, time.Now()))
	if err == sql.ErrNoRows {
		return nil, &apperrors.ErrNotFound{Resource: "inventory item", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to update inventory quantity", zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete inventory item", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apperrors.ErrNotFound{Resource: "inventory item", ID: id.String()}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var lazadaItemID sql.NullString
	var lastSyncedAt sql.NullTime
	var syncStatus string

	err := row.Scan(
		&item.ID,
		&item.SKU,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Quantity,
		&item.Category,
		pq.Array(&item.Images),
		&lazadaItemID,
		&lastSyncedAt,
		&syncStatus,
		pq.Array(&item.SyncErrors),
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lazadaItemID.Valid {
		item.LazadaItemID = &lazadaItemID.String
	}
	if lastSyncedAt.Valid {
		item.LastSyncedAt = &lastSyncedAt.Time
	}
	item.SyncStatus = domain.SyncStatus(syncStatus)

	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*domain.InventoryItem, error) {
	var items []*domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
