package domain

import "testing"

func TestPaymentStatusFor(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  PaymentStatus
	}{
		{"paid in full", 10000, 10000, PaymentStatusPaid},
		{"overpaid", 10000, 12000, PaymentStatusPaid},
		{"partial", 10000, 4000, PaymentStatusPartial},
		{"nothing paid", 10000, 0, PaymentStatusPartial},
		{"zero total", 0, 0, PaymentStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PaymentStatusFor(tc.total, tc.paid); got != tc.want {
				t.Fatalf("PaymentStatusFor(%d, %d) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestPurchaseOrderStatusFor(t *testing.T) {
	cases := []struct {
		name     string
		total    int64
		paid     int64
		received bool
		want     PurchaseOrderStatus
	}{
		{"unpaid pending", 50000, 0, false, PurchaseOrderPending},
		{"unpaid received", 50000, 0, true, PurchaseOrderReceived},
		{"partial payment", 50000, 20000, false, PurchaseOrderPartial},
		{"partial payment received", 50000, 20000, true, PurchaseOrderReceived},
		{"overpaid", 50000, 60000, false, PurchaseOrderSettled},
		{"settled", 50000, 50000, false, PurchaseOrderSettled},
		{"settled received", 50000, 50000, true, PurchaseOrderSettled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PurchaseOrderStatusFor(tc.total, tc.paid, tc.received); got != tc.want {
				t.Fatalf("PurchaseOrderStatusFor(%d, %d, %v) = %s, want %s", tc.total, tc.paid, tc.received, got, tc.want)
			}
		})
	}
}

func TestRepairTransition(t *testing.T) {
	if err := RepairTransition(RepairReceived, RepairReady); err != nil {
		t.Fatalf("received -> ready should be allowed: %v", err)
	}
	if err := RepairTransition(RepairReady, RepairReceived); err != nil {
		t.Fatalf("backwards moves are allowed: %v", err)
	}
	if err := RepairTransition(RepairDelivered, RepairInProgress); err != ErrClosedJob {
		t.Fatalf("expected ErrClosedJob leaving delivered, got %v", err)
	}
	if err := RepairTransition(RepairReceived, RepairStatus("scrapped")); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus for unknown target, got %v", err)
	}
}

func TestEnumValidity(t *testing.T) {
	if !PaymentTransfer.Valid() {
		t.Fatal("TRANSFER should be a valid payment method")
	}
	if PaymentMethod("CHEQUE").Valid() {
		t.Fatal("CHEQUE is not a valid payment method")
	}
	if !SupplierTxDiscountCredit.Valid() {
		t.Fatal("DISCOUNT_CREDIT should be a valid supplier transaction type")
	}
	if SupplierTransactionMethod("CARD").Valid() {
		t.Fatal("CARD is not a supplier payment method")
	}
	if !ExpenseMaintenance.Valid() {
		t.Fatal("MAINTENANCE should be a valid expense category")
	}
	if ExpenseCategory("TRAVEL").Valid() {
		t.Fatal("TRAVEL is not a valid expense category")
	}
}
