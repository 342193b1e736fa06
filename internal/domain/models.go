package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem represents a local inventory record, optionally linked to a
// Lazada listing via LazadaItemID.
type InventoryItem struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Description string
	Price       float64
	Quantity    int
	Category    string
	Images      []string
	// LazadaItemID is set exactly once, when the product is created on
	// Lazada, and never changed afterward.
	LazadaItemID *string
	LastSyncedAt *time.Time
	SyncStatus   SyncStatus
	SyncErrors   []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Linked reports whether the item is already represented as a Lazada listing.
func (i *InventoryItem) Linked() bool {
	return i.LazadaItemID != nil && *i.LazadaItemID != ""
}

// Credential is the Lazada OAuth token set. A single live credential exists;
// all three fields are replaced together on every grant or refresh.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is past its expiry at the given
// instant. Strict comparison: the token is valid while now < ExpiresAt.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// SyncResult is the outcome of syncing a single item.
type SyncResult struct {
	SKU    string `json:"sku"`
	Status string `json:"status"` // "success" or "error"
	Detail string `json:"detail,omitempty"`
}

// SyncReport summarizes one reconciliation run. It is produced fresh per run
// and not persisted.
type SyncReport struct {
	Results   []SyncResult `json:"results"`
	Successes int          `json:"successes"`
	Total     int          `json:"total"`
}

const (
	SyncResultSuccess = "success"
	SyncResultError   = "error"
)
