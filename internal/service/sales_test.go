package service

import (
	"context"
	"errors"
	"testing"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
	"electropos/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), nil, nil, 0)
}

func adminContext() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func staffContext() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "staff", Role: "staff"})
}

func TestCheckoutComputesTotalsAndProfit(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items: []domain.CartItem{
			{ProductID: "prod-usbc-cable", Qty: 2},
			{ProductID: "prod-tempered-glass", Qty: 1},
		},
		PaymentMethod: domain.PaymentCash,
		DiscountCents: 4700,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	sale := resp.Sale
	if sale.SubtotalCents != 74700 {
		t.Fatalf("expected subtotal 74700, got %d", sale.SubtotalCents)
	}
	if sale.TotalCents != 70000 {
		t.Fatalf("expected total 70000, got %d", sale.TotalCents)
	}
	// margin 11900 per cable and 11900 on the glass, minus the discount
	if sale.ProfitCents != 31000 {
		t.Fatalf("expected profit 31000, got %d", sale.ProfitCents)
	}
	if sale.PaidCents != 70000 || sale.DueCents != 0 {
		t.Fatalf("expected fully paid sale, got paid=%d due=%d", sale.PaidCents, sale.DueCents)
	}
	if sale.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected status PAID, got %s", sale.PaymentStatus)
	}
	if len(sale.InvoiceNo) != len("INV-000000") || sale.InvoiceNo[:4] != "INV-" {
		t.Fatalf("unexpected invoice number %q", sale.InvoiceNo)
	}
	if len(sale.Payments) != 1 || sale.Payments[0].AmountCents != 70000 {
		t.Fatalf("expected one initial payment record, got %+v", sale.Payments)
	}

	product, err := svc.GetProduct(staffContext(), "prod-usbc-cable")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 38 {
		t.Fatalf("expected stock 38 after selling 2 of 40, got %d", product.Stock)
	}
}

func TestCheckoutMergesDuplicateLines(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items: []domain.CartItem{
			{ProductID: "prod-sd-card", Qty: 1},
			{ProductID: "prod-sd-card", Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(resp.Sale.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(resp.Sale.Items))
	}
	if resp.Sale.Items[0].Qty != 3 {
		t.Fatalf("expected merged qty 3, got %d", resp.Sale.Items[0].Qty)
	}
}

func TestCheckoutPercentDiscount(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items:           []domain.CartItem{{ProductID: "prod-usbc-cable", Qty: 1}},
		DiscountPercent: 10,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.Sale.DiscountCents != 2990 {
		t.Fatalf("expected 10%% of 29900 = 2990, got %d", resp.Sale.DiscountCents)
	}
	if resp.Sale.TotalCents != 26910 {
		t.Fatalf("expected total 26910, got %d", resp.Sale.TotalCents)
	}
}

func TestCheckoutAbsoluteDiscountWinsOverPercent(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items:           []domain.CartItem{{ProductID: "prod-usbc-cable", Qty: 1}},
		DiscountCents:   1000,
		DiscountPercent: 50,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.Sale.DiscountCents != 1000 {
		t.Fatalf("expected absolute discount 1000 to win, got %d", resp.Sale.DiscountCents)
	}
}

func TestCheckoutPartialPayment(t *testing.T) {
	svc := newTestService()

	paid := int64(50000)
	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items:     []domain.CartItem{{ProductID: "prod-earbuds", Qty: 1}},
		PaidCents: &paid,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.Sale.PaymentStatus != domain.PaymentStatusPartial {
		t.Fatalf("expected PARTIAL, got %s", resp.Sale.PaymentStatus)
	}
	if resp.Sale.DueCents != 79900 {
		t.Fatalf("expected due 79900, got %d", resp.Sale.DueCents)
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items: []domain.CartItem{{ProductID: "prod-missing", Qty: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items: []domain.CartItem{{ProductID: "prod-usbc-cable", Qty: 0}},
	})
	if !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestCheckoutBumpsCustomer(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items:      []domain.CartItem{{ProductID: "prod-screen-a54", Qty: 1}},
		CustomerID: "cust-walkin-01",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	customer, err := svc.GetCustomer(staffContext(), "cust-walkin-01")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.TotalPurchasesCents != 449900 {
		t.Fatalf("expected purchases 449900, got %d", customer.TotalPurchasesCents)
	}
	if customer.VisitCount != 1 {
		t.Fatalf("expected visit count 1, got %d", customer.VisitCount)
	}
	// one point per 10000 cents spent
	if customer.LoyaltyPoints != 44 {
		t.Fatalf("expected 44 loyalty points, got %d", customer.LoyaltyPoints)
	}
	if customer.LastVisit == nil {
		t.Fatal("expected last visit to be set")
	}
}

func TestCheckoutStockFloorsAtZero(t *testing.T) {
	svc := newTestService()

	_, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items: []domain.CartItem{{ProductID: "prod-tempered-glass", Qty: 200}},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	product, err := svc.GetProduct(staffContext(), "prod-tempered-glass")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 0 {
		t.Fatalf("expected stock floored at 0, got %d", product.Stock)
	}
}

func TestAddSalePaymentAndSettle(t *testing.T) {
	svc := newTestService()

	none := int64(0)
	resp, err := svc.Checkout(staffContext(), domain.CheckoutRequest{
		Items:     []domain.CartItem{{ProductID: "prod-powerbank", Qty: 1}},
		PaidCents: &none,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	saleID := resp.Sale.ID

	if _, err := svc.AddSalePayment(staffContext(), saleID, domain.SalePaymentRequest{AmountCents: 200000}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected overpayment to be rejected, got %v", err)
	}

	sale, err := svc.AddSalePayment(staffContext(), saleID, domain.SalePaymentRequest{AmountCents: 50000, Method: domain.PaymentCard})
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	if sale.PaidCents != 50000 || sale.DueCents != 99900 {
		t.Fatalf("unexpected paid/due after partial payment: %d/%d", sale.PaidCents, sale.DueCents)
	}
	if sale.PaymentStatus != domain.PaymentStatusPartial {
		t.Fatalf("expected PARTIAL, got %s", sale.PaymentStatus)
	}

	settled, err := svc.SettleSale(staffContext(), saleID, domain.PaymentCash)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.DueCents != 0 || settled.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected settled sale, got due=%d status=%s", settled.DueCents, settled.PaymentStatus)
	}
	last := settled.Payments[len(settled.Payments)-1]
	if last.Note != "Full Settlement" || last.AmountCents != 99900 {
		t.Fatalf("unexpected settlement record %+v", last)
	}

	if _, err := svc.SettleSale(staffContext(), saleID, domain.PaymentCash); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected settling a paid sale to fail, got %v", err)
	}
}
