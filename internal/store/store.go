package store

import (
	"context"
	"errors"
	"time"

	"electropos/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyReceived    = errors.New("purchase order already received")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)

	// CreateSale persists the sale, decrements stock for every line item
	// (floored at zero) and applies the customer bump, all in one
	// transaction.
	CreateSale(ctx context.Context, sale domain.Sale, bump *domain.Customer) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from, to time.Time, limit int) ([]domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	ListSupplierTransactions(ctx context.Context, supplierID string) ([]domain.SupplierTransaction, error)
	CreateSupplierTransactions(ctx context.Context, txs []domain.SupplierTransaction) error

	// CreatePurchaseOrder registers any new products in the order with zero
	// stock, writes the order and appends the supplier ledger entries in one
	// transaction.
	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, newProducts []domain.Product, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error)
	GetPurchaseOrderByID(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, supplierID string, limit int) ([]domain.PurchaseOrder, error)
	// ReceivePurchaseOrder applies the stock movements and flips the order to
	// received. Returns ErrAlreadyReceived when the order was received before.
	ReceivePurchaseOrder(ctx context.Context, id string, apply func(po *domain.PurchaseOrder, products map[string]domain.Product) ([]domain.Product, []domain.Product, error), receivedAt time.Time) (*domain.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error)

	ListRepairs(ctx context.Context) ([]domain.RepairJob, error)
	GetRepairByID(ctx context.Context, id string) (*domain.RepairJob, error)
	CreateRepair(ctx context.Context, job domain.RepairJob) (*domain.RepairJob, error)
	UpdateRepair(ctx context.Context, job domain.RepairJob) (*domain.RepairJob, error)
	DeleteRepair(ctx context.Context, id string) error

	ListExpenses(ctx context.Context, from, to time.Time) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (domain.ShopSettings, error)
	UpdateSettings(ctx context.Context, settings domain.ShopSettings) (domain.ShopSettings, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUser(ctx context.Context, user domain.UserAccount) error
	UpdateUserPassword(ctx context.Context, username string, password string) error

	// ReplaceAll swaps every collection for the contents of the document in
	// one transaction, keeping the ids found in it.
	ReplaceAll(ctx context.Context, doc domain.BackupDocument) error
}
