package domain

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrClosedJob     = errors.New("repair job already delivered")
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentWallet   PaymentMethod = "WALLET"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOther    PaymentMethod = "OTHER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentWallet, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	// PaymentStatusDue is accepted on input but never produced: a sale with
	// nothing paid is still reported as PARTIAL, matching the historical
	// ledger data this system has to stay compatible with.
	PaymentStatusDue PaymentStatus = "DUE"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusDue:
		return true
	}
	return false
}

// PaymentStatusFor is the single authority for a sale's payment status.
func PaymentStatusFor(totalCents, paidCents int64) PaymentStatus {
	if paidCents >= totalCents {
		return PaymentStatusPaid
	}
	return PaymentStatusPartial
}

type PurchaseOrderStatus string

const (
	PurchaseOrderPending  PurchaseOrderStatus = "PENDING"
	PurchaseOrderReceived PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderPartial  PurchaseOrderStatus = "PARTIAL"
	PurchaseOrderSettled  PurchaseOrderStatus = "SETTLED"
)

func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case PurchaseOrderPending, PurchaseOrderReceived, PurchaseOrderPartial, PurchaseOrderSettled:
		return true
	}
	return false
}

// PurchaseOrderStatusFor is the single authority for an order's status. No
// call site assigns a status directly.
func PurchaseOrderStatusFor(totalCents, paidCents int64, received bool) PurchaseOrderStatus {
	if paidCents >= totalCents {
		return PurchaseOrderSettled
	}
	if received {
		return PurchaseOrderReceived
	}
	if paidCents > 0 {
		return PurchaseOrderPartial
	}
	return PurchaseOrderPending
}

type SupplierTransactionType string

const (
	SupplierTxBill           SupplierTransactionType = "BILL"
	SupplierTxPayment        SupplierTransactionType = "PAYMENT"
	SupplierTxSettlement     SupplierTransactionType = "SETTLEMENT"
	SupplierTxDiscountCredit SupplierTransactionType = "DISCOUNT_CREDIT"
)

func (t SupplierTransactionType) Valid() bool {
	switch t {
	case SupplierTxBill, SupplierTxPayment, SupplierTxSettlement, SupplierTxDiscountCredit:
		return true
	}
	return false
}

type SupplierTransactionMethod string

const (
	SupplierPayCash   SupplierTransactionMethod = "CASH"
	SupplierPayBank   SupplierTransactionMethod = "BANK"
	SupplierPayWallet SupplierTransactionMethod = "WALLET"
	SupplierPayOther  SupplierTransactionMethod = "OTHER"
)

func (m SupplierTransactionMethod) Valid() bool {
	switch m {
	case SupplierPayCash, SupplierPayBank, SupplierPayWallet, SupplierPayOther:
		return true
	}
	return false
}

type RepairStatus string

const (
	RepairReceived        RepairStatus = "received"
	RepairInProgress      RepairStatus = "in-progress"
	RepairWaitingForParts RepairStatus = "waiting-for-parts"
	RepairReady           RepairStatus = "ready"
	RepairDelivered       RepairStatus = "delivered"
)

func (s RepairStatus) Valid() bool {
	switch s {
	case RepairReceived, RepairInProgress, RepairWaitingForParts, RepairReady, RepairDelivered:
		return true
	}
	return false
}

// RepairTransition validates a status move. Any move between valid statuses
// is allowed except leaving delivered, which closes the job.
func RepairTransition(from, to RepairStatus) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if from == RepairDelivered && to != RepairDelivered {
		return ErrClosedJob
	}
	return nil
}

type ExpenseCategory string

const (
	ExpenseRent        ExpenseCategory = "RENT"
	ExpenseSalary      ExpenseCategory = "SALARY"
	ExpenseUtilities   ExpenseCategory = "UTILITIES"
	ExpenseMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseOther       ExpenseCategory = "OTHER"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseRent, ExpenseSalary, ExpenseUtilities, ExpenseMaintenance, ExpenseOther:
		return true
	}
	return false
}
