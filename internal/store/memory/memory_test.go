package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

func TestCreateSaleDecrementsStockAndAppliesBump(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	bump := domain.Customer{ID: "cust-walkin-01", Name: "Arjun Nair", VisitCount: 1, TotalPurchasesCents: 29900}
	sale := domain.Sale{
		ID:         "sale-1",
		InvoiceNo:  "INV-000001",
		Items:      []domain.SaleItem{{ProductID: "prod-usbc-cable", Qty: 3, SellPriceCents: 29900}},
		TotalCents: 89700,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.CreateSale(ctx, sale, &bump); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	product, err := s.GetProductByID(ctx, "prod-usbc-cable")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 37 {
		t.Fatalf("expected stock 37, got %d", product.Stock)
	}

	customer, err := s.GetCustomerByID(ctx, "cust-walkin-01")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.VisitCount != 1 || customer.TotalPurchasesCents != 29900 {
		t.Fatalf("bump not applied: %+v", customer)
	}
}

func TestListSalesRangeAndOrder(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"sale-a", "sale-b", "sale-c"} {
		sale := domain.Sale{
			ID:        id,
			Items:     []domain.SaleItem{{ProductID: "prod-sd-card", Qty: 1}},
			CreatedAt: base.AddDate(0, 0, i),
		}
		if _, err := s.CreateSale(ctx, sale, nil); err != nil {
			t.Fatalf("create sale %s: %v", id, err)
		}
	}

	sales, err := s.ListSales(ctx, base, base.AddDate(0, 0, 2), 0)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected half-open range to keep 2 sales, got %d", len(sales))
	}
	if sales[0].ID != "sale-b" || sales[1].ID != "sale-a" {
		t.Fatalf("expected newest first, got %s then %s", sales[0].ID, sales[1].ID)
	}

	limited, err := s.ListSales(ctx, time.Time{}, time.Time{}, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "sale-c" {
		t.Fatalf("expected only the newest sale, got %+v", limited)
	}
}

func TestReceivePurchaseOrderOnlyOnce(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	po := domain.PurchaseOrder{
		ID:         "po-1",
		SupplierID: "sup-techsource",
		Items:      []domain.PurchaseOrderItem{{ProductID: "prod-usbc-cable", Qty: 5, BuyPriceCents: 18000}},
		TotalCents: 90000,
		Status:     domain.PurchaseOrderPending,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.CreatePurchaseOrder(ctx, po, nil, nil); err != nil {
		t.Fatalf("create po: %v", err)
	}

	apply := func(po *domain.PurchaseOrder, products map[string]domain.Product) ([]domain.Product, []domain.Product, error) {
		p := products["prod-usbc-cable"]
		p.Stock += 5
		return []domain.Product{p}, nil, nil
	}

	received, err := s.ReceivePurchaseOrder(ctx, "po-1", apply, time.Now().UTC())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !received.IsReceived || received.Status != domain.PurchaseOrderReceived {
		t.Fatalf("unexpected order state %+v", received)
	}

	if _, err := s.ReceivePurchaseOrder(ctx, "po-1", apply, time.Now().UTC()); !errors.Is(err, store.ErrAlreadyReceived) {
		t.Fatalf("expected ErrAlreadyReceived, got %v", err)
	}
}

func TestReplaceAllValidatesIDs(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	err := s.ReplaceAll(ctx, domain.BackupDocument{
		Products: []domain.Product{{Name: "anonymous"}},
	})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestSupplierTransactionsSortedOldestFirst(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	txs := []domain.SupplierTransaction{
		{ID: "stx-2", SupplierID: "sup-galaxy", Type: domain.SupplierTxPayment, AmountCents: 100, CreatedAt: now.Add(time.Second)},
		{ID: "stx-1", SupplierID: "sup-galaxy", Type: domain.SupplierTxBill, AmountCents: 500, CreatedAt: now},
	}
	if err := s.CreateSupplierTransactions(ctx, txs); err != nil {
		t.Fatalf("create transactions: %v", err)
	}

	listed, err := s.ListSupplierTransactions(ctx, "sup-galaxy")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "stx-1" {
		t.Fatalf("expected oldest first, got %+v", listed)
	}
}

func TestSupplierTransactionsEqualTimestampsKeepAppendOrder(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	now := time.Now().UTC()

	txs := []domain.SupplierTransaction{
		{ID: "stx-z", SupplierID: "sup-galaxy", Type: domain.SupplierTxBill, AmountCents: 500, CreatedAt: now},
		{ID: "stx-a", SupplierID: "sup-galaxy", Type: domain.SupplierTxPayment, AmountCents: 200, CreatedAt: now},
		{ID: "stx-m", SupplierID: "sup-galaxy", Type: domain.SupplierTxSettlement, AmountCents: 300, CreatedAt: now},
	}
	if err := s.CreateSupplierTransactions(ctx, txs); err != nil {
		t.Fatalf("create transactions: %v", err)
	}

	listed, err := s.ListSupplierTransactions(ctx, "sup-galaxy")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(listed))
	}
	for i, want := range []string{"stx-z", "stx-a", "stx-m"} {
		if listed[i].ID != want {
			t.Fatalf("entry %d is %s, want %s", i, listed[i].ID, want)
		}
	}
}
