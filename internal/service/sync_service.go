package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository"
)

// MarketplaceClient is the slice of the Lazada client the reconciler needs.
type MarketplaceClient interface {
	CreateProduct(ctx context.Context, item *domain.InventoryItem) (*lazada.RemoteResult, error)
	UpdateStock(ctx context.Context, lazadaItemID string, quantity int) (*lazada.RemoteResult, error)
}

// SyncService reconciles local inventory with Lazada listings. Items are
// processed one at a time; one item's failure never aborts the batch.
type SyncService struct {
	repos  *repository.Repositories
	client MarketplaceClient
	logger *zap.Logger
	now    func() time.Time
}

// NewSyncService creates a new inventory sync service
func NewSyncService(repos *repository.Repositories, client MarketplaceClient, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		repos:  repos,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// SyncAll pushes the current quantity of every linked item to Lazada and
// records the per-item outcome locally. The returned report has one entry
// per linked item regardless of individual failures.
func (s *SyncService) SyncAll(ctx context.Context) (*domain.SyncReport, error) {
	items, err := s.repos.Inventory.ListLinked(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.SyncReport{
		Results: make([]domain.SyncResult, 0, len(items)),
		Total:   len(items),
	}

	for _, item := range items {
		result := s.pushStock(ctx, item)
		if result.Status == domain.SyncResultSuccess {
			report.Successes++
		}
		report.Results = append(report.Results, result)
	}

	s.logger.Info("Inventory sync completed",
		zap.Int("successes", report.Successes),
		zap.Int("total", report.Total),
	)
	return report, nil
}

// SyncOne syncs a single item: unlinked items are created on Lazada and
// linked exactly once; linked items get a stock update.
func (s *SyncService) SyncOne(ctx context.Context, item *domain.InventoryItem) (*lazada.RemoteResult, error) {
	if !item.Linked() {
		return s.createAndLink(ctx, item)
	}

	res, err := s.client.UpdateStock(ctx, *item.LazadaItemID, item.Quantity)
	if err != nil {
		s.markFailed(ctx, item, err.Error())
		return nil, err
	}
	if !res.Succeeded() {
		s.markFailed(ctx, item, res.BusinessError("stock update").Error())
		return res, nil
	}

	if err := s.markSynced(ctx, item); err != nil {
		return res, err
	}
	return res, nil
}

func (s *SyncService) createAndLink(ctx context.Context, item *domain.InventoryItem) (*lazada.RemoteResult, error) {
	res, err := s.client.CreateProduct(ctx, item)
	if err != nil {
		return nil, err
	}
	if !res.Succeeded() {
		s.markFailed(ctx, item, res.BusinessError("product create").Error())
		return res, nil
	}

	itemID := res.ItemID()
	if itemID == "" {
		s.markFailed(ctx, item, "marketplace accepted product but returned no item_id")
		return res, nil
	}

	// LazadaItemID is set exactly once, here. createAndLink is only reached
	// for unlinked items, so an existing id is never overwritten.
	item.LazadaItemID = &itemID
	if err := s.markSynced(ctx, item); err != nil {
		return res, err
	}

	s.logger.Info("Created Lazada listing",
		zap.String("sku", item.SKU),
		zap.String("lazada_item_id", itemID),
	)
	return res, nil
}

// pushStock handles one item of a batch. Every failure mode collapses into
// an error entry for that item; nothing propagates to the caller.
func (s *SyncService) pushStock(ctx context.Context, item *domain.InventoryItem) domain.SyncResult {
	res, err := s.client.UpdateStock(ctx, *item.LazadaItemID, item.Quantity)

	var detail string
	switch {
	case err != nil:
		detail = err.Error()
	case !res.Succeeded():
		detail = res.BusinessError("stock update").Error()
	}

	if detail != "" {
		s.markFailed(ctx, item, detail)
		return domain.SyncResult{SKU: item.SKU, Status: domain.SyncResultError, Detail: detail}
	}

	if err := s.markSynced(ctx, item); err != nil {
		detail = "synced remotely but failed to persist locally: " + err.Error()
		return domain.SyncResult{SKU: item.SKU, Status: domain.SyncResultError, Detail: detail}
	}

	return domain.SyncResult{SKU: item.SKU, Status: domain.SyncResultSuccess}
}

func (s *SyncService) markSynced(ctx context.Context, item *domain.InventoryItem) error {
	now := s.now()
	item.SyncStatus = domain.SyncStatusSynced
	item.LastSyncedAt = &now
	item.SyncErrors = nil

	if err := s.repos.Inventory.Update(ctx, item); err != nil {
		s.logger.Error("Failed to persist synced item", zap.Error(err), zap.String("sku", item.SKU))
		return err
	}
	return nil
}

// markFailed records the failure detail for this run only; earlier runs'
// errors are replaced, not accumulated.
func (s *SyncService) markFailed(ctx context.Context, item *domain.InventoryItem, detail string) {
	item.SyncStatus = domain.SyncStatusError
	item.SyncErrors = []string{detail}

	if err := s.repos.Inventory.Update(ctx, item); err != nil {
		s.logger.Error("Failed to persist sync error", zap.Error(err), zap.String("sku", item.SKU))
	}
}
