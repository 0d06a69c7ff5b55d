// Package postgres implements the repository on PostgreSQL via the pgx
// stdlib driver. Line items, payment logs and permissions are stored as
// JSONB; everything queried or summed lives in flat columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	sku TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	serial_number TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	buy_price_cents BIGINT NOT NULL,
	sell_price_cents BIGINT NOT NULL,
	stock INTEGER NOT NULL,
	supplier_id TEXT NOT NULL DEFAULT '',
	warranty_months INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
	id TEXT PRIMARY KEY,
	invoice_no TEXT NOT NULL,
	items JSONB NOT NULL,
	subtotal_cents BIGINT NOT NULL,
	discount_cents BIGINT NOT NULL,
	total_cents BIGINT NOT NULL,
	paid_cents BIGINT NOT NULL,
	due_cents BIGINT NOT NULL,
	profit_cents BIGINT NOT NULL,
	payment_method TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	payments JSONB NOT NULL,
	customer_id TEXT NOT NULL DEFAULT '',
	customer_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sales_created_at_idx ON sales (created_at);
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	total_purchases_cents BIGINT NOT NULL DEFAULT 0,
	loyalty_points BIGINT NOT NULL DEFAULT 0,
	visit_count INTEGER NOT NULL DEFAULT 0,
	last_visit TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	contact_person TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	payment_terms TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS supplier_transactions (
	id TEXT PRIMARY KEY,
	seq BIGSERIAL,
	supplier_id TEXT NOT NULL,
	type TEXT NOT NULL,
	amount_cents BIGINT NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	reference_id TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	balance_after_cents BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS supplier_transactions_supplier_idx ON supplier_transactions (supplier_id, created_at);
CREATE TABLE IF NOT EXISTS purchase_orders (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL,
	bill_number TEXT NOT NULL DEFAULT '',
	items JSONB NOT NULL,
	total_cents BIGINT NOT NULL,
	paid_cents BIGINT NOT NULL,
	due_cents BIGINT NOT NULL,
	status TEXT NOT NULL,
	is_received BOOLEAN NOT NULL DEFAULT FALSE,
	payments JSONB NOT NULL,
	arrival_date TIMESTAMPTZ,
	received_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS repairs (
	id TEXT PRIMARY KEY,
	job_number TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	device TEXT NOT NULL,
	issue TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	estimated_cost_cents BIGINT NOT NULL DEFAULT 0,
	advance_cents BIGINT NOT NULL DEFAULT 0,
	technician TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	delivered_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	amount_cents BIGINT NOT NULL,
	category TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	spent_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS shop_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	role TEXT NOT NULL,
	permissions JSONB NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// withTx runs fn inside a serializable transaction so multi-table writes
// (checkout, purchase order flows, import) stay atomic under concurrency.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- products ---

const productCols = "id, sku, name, brand, serial_number, category, buy_price_cents, sell_price_cents, stock, supplier_id, warranty_months, created_at"

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Brand, &p.SerialNumber, &p.Category,
		&p.BuyPriceCents, &p.SellPriceCents, &p.Stock, &p.SupplierID, &p.WarrantyMonths, &p.CreatedAt)
	return p, err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productCols+" FROM products ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func insertProduct(ctx context.Context, q querier, p domain.Product) error {
	_, err := q.ExecContext(ctx, `INSERT INTO products (`+productCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.SKU, p.Name, p.Brand, p.SerialNumber, p.Category,
		p.BuyPriceCents, p.SellPriceCents, p.Stock, p.SupplierID, p.WarrantyMonths, p.CreatedAt)
	return err
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := insertProduct(ctx, s.db, product); err != nil {
		return nil, err
	}
	return &product, nil
}

func updateProduct(ctx context.Context, q querier, p domain.Product) error {
	res, err := q.ExecContext(ctx, `UPDATE products SET sku=$2, name=$3, brand=$4, serial_number=$5,
		category=$6, buy_price_cents=$7, sell_price_cents=$8, stock=$9, supplier_id=$10, warranty_months=$11
		WHERE id=$1`,
		p.ID, p.SKU, p.Name, p.Brand, p.SerialNumber, p.Category,
		p.BuyPriceCents, p.SellPriceCents, p.Stock, p.SupplierID, p.WarrantyMonths)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := updateProduct(ctx, s.db, product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+productCols+" FROM products WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

// --- sales ---

const saleCols = "id, invoice_no, items, subtotal_cents, discount_cents, total_cents, paid_cents, due_cents, profit_cents, payment_method, payment_status, payments, customer_id, customer_name, created_at"

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var items, payments []byte
	err := row.Scan(&sale.ID, &sale.InvoiceNo, &items, &sale.SubtotalCents, &sale.DiscountCents,
		&sale.TotalCents, &sale.PaidCents, &sale.DueCents, &sale.ProfitCents,
		&sale.PaymentMethod, &sale.PaymentStatus, &payments, &sale.CustomerID, &sale.CustomerName, &sale.CreatedAt)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := json.Unmarshal(items, &sale.Items); err != nil {
		return domain.Sale{}, err
	}
	if err := json.Unmarshal(payments, &sale.Payments); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func insertSale(ctx context.Context, q querier, sale domain.Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return err
	}
	payments, err := json.Marshal(sale.Payments)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO sales (`+saleCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		sale.ID, sale.InvoiceNo, items, sale.SubtotalCents, sale.DiscountCents,
		sale.TotalCents, sale.PaidCents, sale.DueCents, sale.ProfitCents,
		sale.PaymentMethod, sale.PaymentStatus, payments, sale.CustomerID, sale.CustomerName, sale.CreatedAt)
	return err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, bump *domain.Customer) (*domain.Sale, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertSale(ctx, tx, sale); err != nil {
			return err
		}
		for _, item := range sale.Items {
			if _, err := tx.ExecContext(ctx,
				"UPDATE products SET stock = GREATEST(stock - $2, 0) WHERE id = $1",
				item.ProductID, item.Qty); err != nil {
				return err
			}
		}
		if bump != nil {
			return updateCustomer(ctx, tx, *bump)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, "SELECT "+saleCols+" FROM sales WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from, to time.Time, limit int) ([]domain.Sale, error) {
	query := "SELECT " + saleCols + " FROM sales"
	args := make([]any, 0, 3)
	where := ""
	if !from.IsZero() {
		args = append(args, from)
		where = fmt.Sprintf(" WHERE created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		if where == "" {
			where = fmt.Sprintf(" WHERE created_at < $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND created_at < $%d", len(args))
		}
	}
	query += where + " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	payments, err := json.Marshal(sale.Payments)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sales SET paid_cents=$2, due_cents=$3, payment_status=$4, payments=$5 WHERE id=$1`,
		sale.ID, sale.PaidCents, sale.DueCents, sale.PaymentStatus, payments)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

// --- customers ---

const customerCols = "id, name, phone, email, address, total_purchases_cents, loyalty_points, visit_count, last_visit, created_at"

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	var lastVisit sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
		&c.TotalPurchasesCents, &c.LoyaltyPoints, &c.VisitCount, &lastVisit, &c.CreatedAt)
	c.LastVisit = timePtr(lastVisit)
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+customerCols+" FROM customers ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, "SELECT "+customerCols+" FROM customers WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func insertCustomer(ctx context.Context, q querier, c domain.Customer) error {
	_, err := q.ExecContext(ctx, `INSERT INTO customers (`+customerCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.Name, c.Phone, c.Email, c.Address,
		c.TotalPurchasesCents, c.LoyaltyPoints, c.VisitCount, nullTime(c.LastVisit), c.CreatedAt)
	return err
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if err := insertCustomer(ctx, s.db, customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func updateCustomer(ctx context.Context, q querier, c domain.Customer) error {
	res, err := q.ExecContext(ctx, `UPDATE customers SET name=$2, phone=$3, email=$4, address=$5,
		total_purchases_cents=$6, loyalty_points=$7, visit_count=$8, last_visit=$9 WHERE id=$1`,
		c.ID, c.Name, c.Phone, c.Email, c.Address,
		c.TotalPurchasesCents, c.LoyaltyPoints, c.VisitCount, nullTime(c.LastVisit))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if err := updateCustomer(ctx, s.db, customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- suppliers ---

const supplierCols = "id, name, contact_person, phone, email, address, payment_terms, created_at"

func scanSupplier(row rowScanner) (domain.Supplier, error) {
	var sup domain.Supplier
	err := row.Scan(&sup.ID, &sup.Name, &sup.ContactPerson, &sup.Phone, &sup.Email,
		&sup.Address, &sup.PaymentTerms, &sup.CreatedAt)
	return sup, err
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+supplierCols+" FROM suppliers ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0)
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error) {
	sup, err := scanSupplier(s.db.QueryRowContext(ctx, "SELECT "+supplierCols+" FROM suppliers WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &sup, nil
}

func insertSupplier(ctx context.Context, q querier, sup domain.Supplier) error {
	_, err := q.ExecContext(ctx, `INSERT INTO suppliers (`+supplierCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sup.ID, sup.Name, sup.ContactPerson, sup.Phone, sup.Email, sup.Address, sup.PaymentTerms, sup.CreatedAt)
	return err
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if err := insertSupplier(ctx, s.db, supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE suppliers SET name=$2, contact_person=$3, phone=$4,
		email=$5, address=$6, payment_terms=$7 WHERE id=$1`,
		supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Phone,
		supplier.Email, supplier.Address, supplier.PaymentTerms)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const supplierTxCols = "id, supplier_id, type, amount_cents, method, reference_id, description, balance_after_cents, created_at"

func (s *Store) ListSupplierTransactions(ctx context.Context, supplierID string) ([]domain.SupplierTransaction, error) {
	query := "SELECT " + supplierTxCols + " FROM supplier_transactions"
	args := []any{}
	if supplierID != "" {
		query += " WHERE supplier_id = $1"
		args = append(args, supplierID)
	}
	// seq breaks timestamp ties in insertion order
	query += " ORDER BY created_at, seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.SupplierTransaction, 0)
	for rows.Next() {
		var tx domain.SupplierTransaction
		if err := rows.Scan(&tx.ID, &tx.SupplierID, &tx.Type, &tx.AmountCents, &tx.Method,
			&tx.ReferenceID, &tx.Description, &tx.BalanceAfterCents, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func insertSupplierTransactions(ctx context.Context, q querier, txs []domain.SupplierTransaction) error {
	for _, tx := range txs {
		if _, err := q.ExecContext(ctx, `INSERT INTO supplier_transactions (`+supplierTxCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			tx.ID, tx.SupplierID, tx.Type, tx.AmountCents, tx.Method,
			tx.ReferenceID, tx.Description, tx.BalanceAfterCents, tx.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateSupplierTransactions(ctx context.Context, txs []domain.SupplierTransaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertSupplierTransactions(ctx, tx, txs)
	})
}

// --- purchase orders ---

const purchaseOrderCols = "id, supplier_id, bill_number, items, total_cents, paid_cents, due_cents, status, is_received, payments, arrival_date, received_at, created_at"

func scanPurchaseOrder(row rowScanner) (domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	var items, payments []byte
	var arrival, received sql.NullTime
	err := row.Scan(&po.ID, &po.SupplierID, &po.BillNumber, &items, &po.TotalCents,
		&po.PaidCents, &po.DueCents, &po.Status, &po.IsReceived, &payments,
		&arrival, &received, &po.CreatedAt)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	po.ArrivalDate = timePtr(arrival)
	po.ReceivedAt = timePtr(received)
	if err := json.Unmarshal(items, &po.Items); err != nil {
		return domain.PurchaseOrder{}, err
	}
	if err := json.Unmarshal(payments, &po.Payments); err != nil {
		return domain.PurchaseOrder{}, err
	}
	return po, nil
}

func insertPurchaseOrder(ctx context.Context, q querier, po domain.PurchaseOrder) error {
	items, err := json.Marshal(po.Items)
	if err != nil {
		return err
	}
	payments, err := json.Marshal(po.Payments)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO purchase_orders (`+purchaseOrderCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		po.ID, po.SupplierID, po.BillNumber, items, po.TotalCents, po.PaidCents, po.DueCents,
		po.Status, po.IsReceived, payments, nullTime(po.ArrivalDate), nullTime(po.ReceivedAt), po.CreatedAt)
	return err
}

func updatePurchaseOrder(ctx context.Context, q querier, po domain.PurchaseOrder) error {
	items, err := json.Marshal(po.Items)
	if err != nil {
		return err
	}
	payments, err := json.Marshal(po.Payments)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `UPDATE purchase_orders SET items=$2, paid_cents=$3, due_cents=$4,
		status=$5, is_received=$6, payments=$7, received_at=$8 WHERE id=$1`,
		po.ID, items, po.PaidCents, po.DueCents, po.Status, po.IsReceived, payments, nullTime(po.ReceivedAt))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, newProducts []domain.Product, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range newProducts {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		if err := insertPurchaseOrder(ctx, tx, po); err != nil {
			return err
		}
		return insertSupplierTransactions(ctx, tx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (s *Store) GetPurchaseOrderByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(s.db.QueryRowContext(ctx, "SELECT "+purchaseOrderCols+" FROM purchase_orders WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, supplierID string, limit int) ([]domain.PurchaseOrder, error) {
	query := "SELECT " + purchaseOrderCols + " FROM purchase_orders"
	args := []any{}
	if supplierID != "" {
		args = append(args, supplierID)
		query += " WHERE supplier_id = $1"
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (s *Store) ReceivePurchaseOrder(ctx context.Context, id string, apply func(po *domain.PurchaseOrder, products map[string]domain.Product) ([]domain.Product, []domain.Product, error), receivedAt time.Time) (*domain.PurchaseOrder, error) {
	var result domain.PurchaseOrder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		po, err := scanPurchaseOrder(tx.QueryRowContext(ctx,
			"SELECT "+purchaseOrderCols+" FROM purchase_orders WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return notFound(err)
		}
		if po.IsReceived {
			return store.ErrAlreadyReceived
		}

		ids := make([]string, 0, len(po.Items))
		for _, item := range po.Items {
			ids = append(ids, item.ProductID)
		}
		products := make(map[string]domain.Product, len(ids))
		if len(ids) > 0 {
			rows, err := tx.QueryContext(ctx,
				"SELECT "+productCols+" FROM products WHERE id = ANY($1) FOR UPDATE", ids)
			if err != nil {
				return err
			}
			for rows.Next() {
				p, err := scanProduct(rows)
				if err != nil {
					rows.Close()
					return err
				}
				products[p.ID] = p
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
		}

		updated, inserted, err := apply(&po, products)
		if err != nil {
			return err
		}
		for _, p := range updated {
			if err := updateProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, p := range inserted {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}

		po.IsReceived = true
		po.ReceivedAt = &receivedAt
		po.Status = domain.PurchaseOrderStatusFor(po.TotalCents, po.PaidCents, true)
		if err := updatePurchaseOrder(ctx, tx, po); err != nil {
			return err
		}
		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updatePurchaseOrder(ctx, tx, po); err != nil {
			return err
		}
		return insertSupplierTransactions(ctx, tx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// --- repairs ---

const repairCols = "id, job_number, customer_name, customer_phone, device, issue, status, estimated_cost_cents, advance_cents, technician, notes, created_at, updated_at, delivered_at"

func scanRepair(row rowScanner) (domain.RepairJob, error) {
	var job domain.RepairJob
	var delivered sql.NullTime
	err := row.Scan(&job.ID, &job.JobNumber, &job.CustomerName, &job.CustomerPhone,
		&job.Device, &job.Issue, &job.Status, &job.EstimatedCostCents, &job.AdvanceCents,
		&job.Technician, &job.Notes, &job.CreatedAt, &job.UpdatedAt, &delivered)
	job.DeliveredAt = timePtr(delivered)
	return job, err
}

func (s *Store) ListRepairs(ctx context.Context) ([]domain.RepairJob, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+repairCols+" FROM repairs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repairs := make([]domain.RepairJob, 0)
	for rows.Next() {
		job, err := scanRepair(rows)
		if err != nil {
			return nil, err
		}
		repairs = append(repairs, job)
	}
	return repairs, rows.Err()
}

func (s *Store) GetRepairByID(ctx context.Context, id string) (*domain.RepairJob, error) {
	job, err := scanRepair(s.db.QueryRowContext(ctx, "SELECT "+repairCols+" FROM repairs WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

func insertRepair(ctx context.Context, q querier, job domain.RepairJob) error {
	_, err := q.ExecContext(ctx, `INSERT INTO repairs (`+repairCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		job.ID, job.JobNumber, job.CustomerName, job.CustomerPhone, job.Device, job.Issue,
		job.Status, job.EstimatedCostCents, job.AdvanceCents, job.Technician, job.Notes,
		job.CreatedAt, job.UpdatedAt, nullTime(job.DeliveredAt))
	return err
}

func (s *Store) CreateRepair(ctx context.Context, job domain.RepairJob) (*domain.RepairJob, error) {
	if err := insertRepair(ctx, s.db, job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Store) UpdateRepair(ctx context.Context, job domain.RepairJob) (*domain.RepairJob, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE repairs SET customer_name=$2, customer_phone=$3, device=$4,
		issue=$5, status=$6, estimated_cost_cents=$7, advance_cents=$8, technician=$9, notes=$10,
		updated_at=$11, delivered_at=$12 WHERE id=$1`,
		job.ID, job.CustomerName, job.CustomerPhone, job.Device, job.Issue, job.Status,
		job.EstimatedCostCents, job.AdvanceCents, job.Technician, job.Notes,
		job.UpdatedAt, nullTime(job.DeliveredAt))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return &job, nil
}

func (s *Store) DeleteRepair(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM repairs WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- expenses ---

const expenseCols = "id, title, amount_cents, category, notes, spent_at, created_at"

func (s *Store) ListExpenses(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	query := "SELECT " + expenseCols + " FROM expenses"
	args := make([]any, 0, 2)
	where := ""
	if !from.IsZero() {
		args = append(args, from)
		where = fmt.Sprintf(" WHERE spent_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		if where == "" {
			where = fmt.Sprintf(" WHERE spent_at < $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND spent_at < $%d", len(args))
		}
	}
	query += where + " ORDER BY spent_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.AmountCents, &e.Category, &e.Notes, &e.SpentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func insertExpense(ctx context.Context, q querier, e domain.Expense) error {
	_, err := q.ExecContext(ctx, `INSERT INTO expenses (`+expenseCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Title, e.AmountCents, e.Category, e.Notes, e.SpentAt, e.CreatedAt)
	return err
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if err := insertExpense(ctx, s.db, expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- settings ---

func (s *Store) GetSettings(ctx context.Context) (domain.ShopSettings, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM shop_settings WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ShopSettings{}, nil
	}
	if err != nil {
		return domain.ShopSettings{}, err
	}
	var settings domain.ShopSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return domain.ShopSettings{}, err
	}
	return settings, nil
}

func upsertSettings(ctx context.Context, q querier, settings domain.ShopSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO shop_settings (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, data)
	return err
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.ShopSettings) (domain.ShopSettings, error) {
	if err := upsertSettings(ctx, s.db, settings); err != nil {
		return domain.ShopSettings{}, err
	}
	return settings, nil
}

// --- users ---

const userCols = "username, password, role, permissions, active, created_at"

func scanUser(row rowScanner) (domain.UserAccount, error) {
	var user domain.UserAccount
	var permissions []byte
	err := row.Scan(&user.Username, &user.Password, &user.Role, &permissions, &user.Active, &user.CreatedAt)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if err := json.Unmarshal(permissions, &user.Permissions); err != nil {
		return domain.UserAccount{}, err
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (`+userCols+`)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		user.Username, user.Password, user.Role, permissions, user.Active, user.CreatedAt)
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE username = $1", username))
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user domain.UserAccount) error {
	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password=$2, role=$3, permissions=$4, active=$5 WHERE username=$1`,
		user.Username, user.Password, user.Role, permissions, user.Active)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password = $2 WHERE username = $1", username, password)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- backup ---

// ReplaceAll swaps every business collection for the document's contents.
// User accounts are not part of the backup and stay untouched.
func (s *Store) ReplaceAll(ctx context.Context, doc domain.BackupDocument) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		tables := []string{"supplier_transactions", "purchase_orders", "sales", "expenses", "repairs", "products", "customers", "suppliers"}
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}

		for _, sup := range doc.Suppliers {
			if err := insertSupplier(ctx, tx, sup); err != nil {
				return err
			}
		}
		for _, c := range doc.Customers {
			if err := insertCustomer(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, p := range doc.Products {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, sale := range doc.Sales {
			if err := insertSale(ctx, tx, sale); err != nil {
				return err
			}
		}
		if err := insertSupplierTransactions(ctx, tx, doc.SupplierTransactions); err != nil {
			return err
		}
		for _, po := range doc.PurchaseOrders {
			if err := insertPurchaseOrder(ctx, tx, po); err != nil {
				return err
			}
		}
		for _, job := range doc.Repairs {
			if err := insertRepair(ctx, tx, job); err != nil {
				return err
			}
		}
		for _, e := range doc.Expenses {
			if err := insertExpense(ctx, tx, e); err != nil {
				return err
			}
		}
		return upsertSettings(ctx, tx, doc.Settings)
	})
}
