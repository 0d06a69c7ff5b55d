package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

// ExportBackup snapshots every collection into one document.
func (s *Service) ExportBackup(ctx context.Context) (domain.BackupDocument, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.BackupDocument{}, err
	}

	doc := domain.BackupDocument{ExportedAt: time.Now().UTC()}
	var err error

	if doc.Products, err = s.repo.ListProducts(ctx); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Sales, err = s.repo.ListSales(ctx, time.Time{}, time.Time{}, 0); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Customers, err = s.repo.ListCustomers(ctx); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Suppliers, err = s.repo.ListSuppliers(ctx); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.SupplierTransactions, err = s.repo.ListSupplierTransactions(ctx, ""); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.PurchaseOrders, err = s.repo.ListPurchaseOrders(ctx, "", 0); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Repairs, err = s.repo.ListRepairs(ctx); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Expenses, err = s.repo.ListExpenses(ctx, time.Time{}, time.Time{}); err != nil {
		return domain.BackupDocument{}, err
	}
	if doc.Settings, err = s.repo.GetSettings(ctx); err != nil {
		return domain.BackupDocument{}, err
	}

	return doc, nil
}

// ImportBackup replaces every collection with the document's contents. Record
// ids are kept as found so an export/import round trip is id-stable.
func (s *Service) ImportBackup(ctx context.Context, doc domain.BackupDocument) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	for _, p := range doc.Products {
		if p.ID == "" {
			return store.ErrInvalidTransaction
		}
	}
	for _, sale := range doc.Sales {
		if sale.ID == "" {
			return store.ErrInvalidTransaction
		}
	}

	if err := s.repo.ReplaceAll(ctx, doc); err != nil {
		return err
	}

	s.logger.Info("backup imported",
		zap.Int("products", len(doc.Products)),
		zap.Int("sales", len(doc.Sales)),
		zap.Int("customers", len(doc.Customers)),
		zap.Int("purchase_orders", len(doc.PurchaseOrders)))

	return nil
}
