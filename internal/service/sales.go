package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
	"electropos/backend/internal/xid"
)

// normalizeItems merges duplicate cart lines by product id and drops lines
// with a non-positive quantity.
func normalizeItems(items []domain.CartItem) []domain.CartItem {
	merged := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Qty < 1 {
			continue
		}
		if _, seen := merged[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Qty
	}

	result := make([]domain.CartItem, 0, len(order))
	for _, id := range order {
		result = append(result, domain.CartItem{ProductID: id, Qty: merged[id]})
	}
	return result
}

// invoiceNumberAt derives the invoice number from the last six digits of the
// unix-millisecond timestamp, the numbering scheme printed on every historical
// invoice this system inherits.
func invoiceNumberAt(at time.Time) string {
	millis := at.UnixMilli()
	return fmt.Sprintf("INV-%06d", millis%1000000)
}

// resolveDiscount picks the canonical absolute discount. A percent input is
// converted once against the subtotal; when both are present the absolute
// amount wins. The result is clamped to [0, subtotal].
func resolveDiscount(subtotalCents int64, discountCents int64, discountPercent float64) int64 {
	discount := discountCents
	if discount == 0 && discountPercent > 0 {
		discount = int64(math.Round(float64(subtotalCents) * discountPercent / 100))
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	return discount
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	req.Items = normalizeItems(req.Items)
	if len(req.Items) == 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}
	if req.PaidCents != nil && *req.PaidCents < 0 {
		return domain.CheckoutResponse{}, store.ErrInvalidTransaction
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	now := time.Now().UTC()
	var subtotal, profit int64
	lines := make([]domain.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, exists := products[item.ProductID]
		if !exists {
			return domain.CheckoutResponse{}, store.ErrNotFound
		}
		lineTotal := product.SellPriceCents * int64(item.Qty)
		subtotal += lineTotal
		profit += (product.SellPriceCents - product.BuyPriceCents) * int64(item.Qty)
		lines = append(lines, domain.SaleItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            item.Qty,
			SellPriceCents: product.SellPriceCents,
			BuyPriceCents:  product.BuyPriceCents,
			TotalCents:     lineTotal,
		})
	}

	discount := resolveDiscount(subtotal, req.DiscountCents, req.DiscountPercent)
	total := subtotal - discount
	profit -= discount

	paid := total
	if req.PaidCents != nil {
		paid = *req.PaidCents
	}
	due := total - paid
	if due < 0 {
		due = 0
	}

	customerName := req.CustomerName
	var bump *domain.Customer
	if req.CustomerID != "" {
		customer, err := s.repo.GetCustomerByID(ctx, req.CustomerID)
		if err != nil {
			return domain.CheckoutResponse{}, err
		}
		bumped := *customer
		bumped.TotalPurchasesCents += total
		bumped.VisitCount++
		bumped.LoyaltyPoints += total / 10000
		bumped.LastVisit = &now
		bump = &bumped
		if customerName == "" {
			customerName = customer.Name
		}
	}

	sale := domain.Sale{
		ID:            xid.New("sale"),
		InvoiceNo:     invoiceNumberAt(now),
		Items:         lines,
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    total,
		PaidCents:     paid,
		DueCents:      due,
		ProfitCents:   profit,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: domain.PaymentStatusFor(total, paid),
		Payments:      []domain.PaymentRecord{},
		CustomerID:    req.CustomerID,
		CustomerName:  customerName,
		CreatedAt:     now,
	}
	if paid > 0 {
		sale.Payments = append(sale.Payments, domain.PaymentRecord{
			ID:          xid.New("pay"),
			AmountCents: paid,
			Method:      req.PaymentMethod,
			CreatedAt:   now,
		})
	}

	created, err := s.repo.CreateSale(ctx, sale, bump)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", created.ID),
		zap.String("invoice_no", created.InvoiceNo),
		zap.Int64("total_cents", created.TotalCents),
		zap.String("payment_status", string(created.PaymentStatus)))

	return domain.CheckoutResponse{Sale: *created}, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, from, to time.Time, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, from, to, limit)
}

// AddSalePayment appends a payment to a partially paid invoice and recomputes
// paid, due and status from the payment log.
func (s *Service) AddSalePayment(ctx context.Context, saleID string, req domain.SalePaymentRequest) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if req.Method == "" {
		req.Method = domain.PaymentCash
	}
	if !req.Method.Valid() {
		return domain.Sale{}, store.ErrInvalidTransaction
	}
	if req.AmountCents < 1 || req.AmountCents > sale.DueCents {
		return domain.Sale{}, store.ErrInvalidTransaction
	}

	now := time.Now().UTC()
	sale.Payments = append(sale.Payments, domain.PaymentRecord{
		ID:          xid.New("pay"),
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Note:        req.Note,
		CreatedAt:   now,
	})

	var paid int64
	for _, p := range sale.Payments {
		paid += p.AmountCents
	}
	sale.PaidCents = paid
	sale.DueCents = sale.TotalCents - paid
	if sale.DueCents < 0 {
		sale.DueCents = 0
	}
	sale.PaymentStatus = domain.PaymentStatusFor(sale.TotalCents, paid)

	saved, err := s.repo.UpdateSale(ctx, *sale)
	if err != nil {
		return domain.Sale{}, err
	}
	return *saved, nil
}

// SettleSale records one payment for the full outstanding due.
func (s *Service) SettleSale(ctx context.Context, saleID string, method domain.PaymentMethod) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.DueCents < 1 {
		return domain.Sale{}, store.ErrInvalidTransaction
	}
	if method == "" {
		method = domain.PaymentCash
	}
	return s.AddSalePayment(ctx, saleID, domain.SalePaymentRequest{
		AmountCents: sale.DueCents,
		Method:      method,
		Note:        "Full Settlement",
	})
}
