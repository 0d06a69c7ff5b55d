package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
	"electropos/backend/internal/xid"
)

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.ErrInvalidTransaction
	}

	supplier := domain.Supplier{
		ID:            xid.New("sup"),
		Name:          req.Name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
		PaymentTerms:  strings.TrimSpace(req.PaymentTerms),
		CreatedAt:     time.Now().UTC(),
	}

	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	existing, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Supplier{}, store.ErrInvalidTransaction
		}
		updated.Name = name
	}
	if req.ContactPerson != nil {
		updated.ContactPerson = strings.TrimSpace(*req.ContactPerson)
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.PaymentTerms != nil {
		updated.PaymentTerms = strings.TrimSpace(*req.PaymentTerms)
	}

	saved, err := s.repo.UpdateSupplier(ctx, updated)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteSupplier(ctx, id)
}

// supplierBalanceCents recomputes the outstanding balance from the ledger:
// bills add to the debt, every other entry reduces it.
func supplierBalanceCents(txs []domain.SupplierTransaction) int64 {
	var balance int64
	for _, tx := range txs {
		if tx.Type == domain.SupplierTxBill {
			balance += tx.AmountCents
		} else {
			balance -= tx.AmountCents
		}
	}
	return balance
}

func (s *Service) SupplierBalance(ctx context.Context, supplierID string) (domain.SupplierBalanceResponse, error) {
	if _, err := s.repo.GetSupplierByID(ctx, supplierID); err != nil {
		return domain.SupplierBalanceResponse{}, err
	}
	txs, err := s.repo.ListSupplierTransactions(ctx, supplierID)
	if err != nil {
		return domain.SupplierBalanceResponse{}, err
	}
	return domain.SupplierBalanceResponse{
		SupplierID:   supplierID,
		BalanceCents: supplierBalanceCents(txs),
		Transactions: txs,
	}, nil
}

// CreatePurchaseOrder records a restock from a supplier. Items referencing no
// existing product register a new one with zero stock; the stock arrives when
// the order is received. The full order amount is billed to the supplier
// ledger, with an optional initial payment logged against the balance read
// before either entry.
func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrder, error) {
	if req.SupplierID == "" || len(req.Items) == 0 {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}
	if req.PaidCents < 0 {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}
	if req.Method == "" {
		req.Method = domain.SupplierPayCash
	}
	if !req.Method.Valid() {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}

	supplier, err := s.repo.GetSupplierByID(ctx, req.SupplierID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	existingIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID != "" {
			existingIDs = append(existingIDs, item.ProductID)
		}
	}
	existing, err := s.repo.GetProductsByIDs(ctx, existingIDs)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	now := time.Now().UTC()
	var total int64
	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	newProducts := make([]domain.Product, 0)
	for _, input := range req.Items {
		if input.Qty < 1 || input.BuyPriceCents < 0 {
			return domain.PurchaseOrder{}, store.ErrInvalidTransaction
		}

		productID := input.ProductID
		productName := strings.TrimSpace(input.Name)
		if productID != "" {
			product, exists := existing[productID]
			if !exists {
				return domain.PurchaseOrder{}, store.ErrNotFound
			}
			productName = product.Name
		} else {
			if productName == "" {
				return domain.PurchaseOrder{}, store.ErrInvalidTransaction
			}
			productID = xid.New("prod")
			sellPrice := input.SellPriceCents
			if sellPrice < 1 {
				sellPrice = input.BuyPriceCents
			}
			newProducts = append(newProducts, domain.Product{
				ID:             productID,
				SKU:            strings.ToUpper(strings.TrimSpace(input.SKU)),
				Name:           productName,
				Category:       strings.TrimSpace(input.Category),
				BuyPriceCents:  input.BuyPriceCents,
				SellPriceCents: sellPrice,
				Stock:          0,
				SupplierID:     req.SupplierID,
				CreatedAt:      now,
			})
		}

		lineTotal := input.BuyPriceCents * int64(input.Qty)
		total += lineTotal
		items = append(items, domain.PurchaseOrderItem{
			ProductID:     productID,
			ProductName:   productName,
			Qty:           input.Qty,
			BuyPriceCents: input.BuyPriceCents,
			TotalCents:    lineTotal,
		})
	}

	if req.PaidCents > total {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}

	preTxs, err := s.repo.ListSupplierTransactions(ctx, req.SupplierID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	preBalance := supplierBalanceCents(preTxs)

	due := total - req.PaidCents
	po := domain.PurchaseOrder{
		ID:          xid.New("po"),
		SupplierID:  req.SupplierID,
		BillNumber:  strings.TrimSpace(req.BillNumber),
		Items:       items,
		TotalCents:  total,
		PaidCents:   req.PaidCents,
		DueCents:    due,
		Status:      domain.PurchaseOrderStatusFor(total, req.PaidCents, false),
		IsReceived:  false,
		Payments:    []domain.PaymentRecord{},
		ArrivalDate: req.ArrivalDate,
		CreatedAt:   now,
	}

	ledger := []domain.SupplierTransaction{{
		ID:                xid.New("stx"),
		SupplierID:        req.SupplierID,
		Type:              domain.SupplierTxBill,
		AmountCents:       total,
		Method:            req.Method,
		ReferenceID:       po.ID,
		Description:       "Purchase " + po.BillNumber,
		BalanceAfterCents: preBalance + total,
		CreatedAt:         now,
	}}
	if req.PaidCents > 0 {
		po.Payments = append(po.Payments, domain.PaymentRecord{
			ID:          xid.New("pay"),
			AmountCents: req.PaidCents,
			Method:      domain.PaymentMethod(req.Method),
			CreatedAt:   now,
		})
		ledger = append(ledger, domain.SupplierTransaction{
			ID:                xid.New("stx"),
			SupplierID:        req.SupplierID,
			Type:              domain.SupplierTxPayment,
			AmountCents:       req.PaidCents,
			Method:            req.Method,
			ReferenceID:       po.ID,
			Description:       "Initial payment " + po.BillNumber,
			BalanceAfterCents: preBalance + total - req.PaidCents,
			CreatedAt:         now,
		})
	}

	created, err := s.repo.CreatePurchaseOrder(ctx, po, newProducts, ledger)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	s.logger.Info("purchase order created",
		zap.String("purchase_order_id", created.ID),
		zap.String("supplier", supplier.Name),
		zap.Int64("total_cents", created.TotalCents),
		zap.Int("new_products", len(newProducts)))

	return *created, nil
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrderByID(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *po, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, supplierID string, limit int) ([]domain.PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx, supplierID, limit)
}

func (s *Service) ListSupplierTransactions(ctx context.Context, supplierID string) ([]domain.SupplierTransaction, error) {
	return s.repo.ListSupplierTransactions(ctx, supplierID)
}

// ReceivePurchaseOrder is the only operation that increases stock. Lines whose
// buy price matches the existing product add to its stock; a differing buy
// price creates a separate product row so the old batch keeps its cost.
func (s *Service) ReceivePurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	now := time.Now().UTC()

	received, err := s.repo.ReceivePurchaseOrder(ctx, id, func(po *domain.PurchaseOrder, products map[string]domain.Product) ([]domain.Product, []domain.Product, error) {
		updated := make([]domain.Product, 0, len(po.Items))
		inserted := make([]domain.Product, 0)
		for i, item := range po.Items {
			product, exists := products[item.ProductID]
			if !exists {
				return nil, nil, store.ErrNotFound
			}
			if product.BuyPriceCents == item.BuyPriceCents {
				product.Stock += item.Qty
				products[item.ProductID] = product
				updated = append(updated, product)
				continue
			}

			batch := product
			batch.ID = xid.New("prod")
			batch.BuyPriceCents = item.BuyPriceCents
			batch.Stock = item.Qty
			batch.CreatedAt = now
			inserted = append(inserted, batch)
			po.Items[i].ProductID = batch.ID
		}
		return updated, inserted, nil
	}, now)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	s.logger.Info("purchase order received",
		zap.String("purchase_order_id", received.ID),
		zap.String("status", string(received.Status)))

	return *received, nil
}

// AddPurchaseOrderPayment appends a payment to the order and to the supplier
// ledger in the same call path.
func (s *Service) AddPurchaseOrderPayment(ctx context.Context, id string, req domain.PurchaseOrderPaymentRequest) (domain.PurchaseOrder, error) {
	return s.payPurchaseOrder(ctx, id, req, domain.SupplierTxPayment)
}

// SettlePurchaseOrder pays the full outstanding due and logs a settlement.
func (s *Service) SettlePurchaseOrder(ctx context.Context, id string, method domain.SupplierTransactionMethod) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrderByID(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if po.DueCents < 1 {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}
	return s.payPurchaseOrder(ctx, id, domain.PurchaseOrderPaymentRequest{
		AmountCents: po.DueCents,
		Method:      method,
		Note:        "Full Settlement",
	}, domain.SupplierTxSettlement)
}

func (s *Service) payPurchaseOrder(ctx context.Context, id string, req domain.PurchaseOrderPaymentRequest, txType domain.SupplierTransactionType) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrderByID(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	if req.Method == "" {
		req.Method = domain.SupplierPayCash
	}
	if !req.Method.Valid() {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}
	if req.AmountCents < 1 || req.AmountCents > po.DueCents {
		return domain.PurchaseOrder{}, store.ErrInvalidTransaction
	}

	preTxs, err := s.repo.ListSupplierTransactions(ctx, po.SupplierID)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	preBalance := supplierBalanceCents(preTxs)

	now := time.Now().UTC()
	po.Payments = append(po.Payments, domain.PaymentRecord{
		ID:          xid.New("pay"),
		AmountCents: req.AmountCents,
		Method:      domain.PaymentMethod(req.Method),
		Note:        req.Note,
		CreatedAt:   now,
	})
	po.PaidCents += req.AmountCents
	po.DueCents = po.TotalCents - po.PaidCents
	if po.DueCents < 0 {
		po.DueCents = 0
	}
	po.Status = domain.PurchaseOrderStatusFor(po.TotalCents, po.PaidCents, po.IsReceived)

	ledger := []domain.SupplierTransaction{{
		ID:                xid.New("stx"),
		SupplierID:        po.SupplierID,
		Type:              txType,
		AmountCents:       req.AmountCents,
		Method:            req.Method,
		ReferenceID:       po.ID,
		Description:       req.Note,
		BalanceAfterCents: preBalance - req.AmountCents,
		CreatedAt:         now,
	}}

	saved, err := s.repo.UpdatePurchaseOrder(ctx, *po, ledger)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *saved, nil
}
