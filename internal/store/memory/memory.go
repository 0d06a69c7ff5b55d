package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

type Store struct {
	mu                   sync.RWMutex
	productsByID         map[string]domain.Product
	salesByID            map[string]domain.Sale
	customersByID        map[string]domain.Customer
	suppliersByID        map[string]domain.Supplier
	supplierTransactions []domain.SupplierTransaction
	purchaseOrdersByID   map[string]domain.PurchaseOrder
	repairsByID          map[string]domain.RepairJob
	expensesByID         map[string]domain.Expense
	settings             domain.ShopSettings
	usersByUsername      map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username    string
		password    string
		role        string
		permissions []string
	}{
		{"admin", adminPwd, "admin", []string{"*"}},
		{"staff", staffPwd, "staff", []string{"/billing", "/invoices", "/customers", "/repairs"}},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:    u.username,
			Password:    string(hash),
			Role:        u.role,
			Permissions: u.permissions,
			Active:      true,
			CreatedAt:   now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	suppliers := []domain.Supplier{
		{ID: "sup-techsource", Name: "TechSource Distributors", ContactPerson: "Ravi Menon", Phone: "+91-98450-11223", PaymentTerms: "NET 30", CreatedAt: now},
		{ID: "sup-galaxy", Name: "Galaxy Mobile Wholesale", ContactPerson: "Priya Shah", Phone: "+91-98220-44556", PaymentTerms: "NET 15", CreatedAt: now},
	}

	products := []domain.Product{
		{ID: "prod-usbc-cable", SKU: "EL-CAB-001", Name: "USB-C Braided Cable 1m", Brand: "Anker", Category: "cables", BuyPriceCents: 18000, SellPriceCents: 29900, Stock: 40, SupplierID: "sup-techsource", WarrantyMonths: 6, CreatedAt: now},
		{ID: "prod-earbuds", SKU: "EL-AUD-014", Name: "Wireless Earbuds X2", Brand: "boAt", Category: "audio", BuyPriceCents: 89000, SellPriceCents: 129900, Stock: 25, SupplierID: "sup-galaxy", WarrantyMonths: 12, CreatedAt: now},
		{ID: "prod-charger-20w", SKU: "EL-CHG-007", Name: "20W Fast Charger", Brand: "Samsung", Category: "chargers", BuyPriceCents: 52000, SellPriceCents: 79900, Stock: 30, SupplierID: "sup-galaxy", WarrantyMonths: 12, CreatedAt: now},
		{ID: "prod-screen-a54", SKU: "EL-SCR-031", Name: "Galaxy A54 Display Assembly", Brand: "Samsung", Category: "spare-parts", BuyPriceCents: 310000, SellPriceCents: 449900, Stock: 8, SupplierID: "sup-galaxy", WarrantyMonths: 3, CreatedAt: now},
		{ID: "prod-powerbank", SKU: "EL-PWR-019", Name: "Power Bank 10000mAh", Brand: "Mi", Category: "power", BuyPriceCents: 95000, SellPriceCents: 149900, Stock: 18, SupplierID: "sup-techsource", WarrantyMonths: 6, CreatedAt: now},
		{ID: "prod-tempered-glass", SKU: "EL-ACC-002", Name: "Tempered Glass Universal 6.5 inch", Brand: "Generic", Category: "accessories", BuyPriceCents: 3000, SellPriceCents: 14900, Stock: 120, SupplierID: "sup-techsource", WarrantyMonths: 0, CreatedAt: now},
		{ID: "prod-sd-card", SKU: "EL-MEM-005", Name: "MicroSD 128GB", Brand: "SanDisk", Category: "storage", BuyPriceCents: 68000, SellPriceCents: 99900, Stock: 22, SupplierID: "sup-techsource", WarrantyMonths: 60, CreatedAt: now},
		{ID: "prod-battery-ip12", SKU: "EL-BAT-044", Name: "iPhone 12 Battery OEM", Brand: "OEM", Category: "spare-parts", BuyPriceCents: 145000, SellPriceCents: 249900, Stock: 10, SupplierID: "sup-galaxy", WarrantyMonths: 6, CreatedAt: now},
	}

	customers := []domain.Customer{
		{ID: "cust-walkin-01", Name: "Arjun Nair", Phone: "+91-99887-12345", CreatedAt: now},
		{ID: "cust-walkin-02", Name: "Meera Pillai", Phone: "+91-97456-67890", CreatedAt: now},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	supplierMap := make(map[string]domain.Supplier, len(suppliers))
	for _, sup := range suppliers {
		supplierMap[sup.ID] = sup
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	return &Store{
		productsByID:         productMap,
		salesByID:            make(map[string]domain.Sale),
		customersByID:        customerMap,
		suppliersByID:        supplierMap,
		supplierTransactions: make([]domain.SupplierTransaction, 0, 64),
		purchaseOrdersByID:   make(map[string]domain.PurchaseOrder),
		repairsByID:          make(map[string]domain.RepairJob),
		expensesByID:         make(map[string]domain.Expense),
		settings: domain.ShopSettings{
			StoreName:     "ElectroHub",
			AddressLine1:  "12 MG Road",
			Phone:         "+91-80-4111-2233",
			ReceiptFooter: "Thank you for shopping with us",
		},
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.productsByID[product.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}

	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[product.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	return nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, exists := s.productsByID[id]; exists {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, bump *domain.Customer) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}

	for _, item := range sale.Items {
		product, exists := s.productsByID[item.ProductID]
		if !exists {
			continue
		}
		product.Stock -= item.Qty
		if product.Stock < 0 {
			product.Stock = 0
		}
		s.productsByID[item.ProductID] = product
	}

	if bump != nil {
		s.customersByID[bump.ID] = *bump
	}

	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, from, to time.Time, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[sale.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.salesByID[sale.ID] = sale
	updated := sale
	return &updated, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.customersByID[customer.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[customer.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.customersByID[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.customersByID, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return strings.Compare(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplierByID(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.ID == "" || supplier.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.suppliersByID[supplier.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	s.suppliersByID[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliersByID[supplier.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.suppliersByID[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.suppliersByID, id)
	return nil
}

func (s *Store) ListSupplierTransactions(_ context.Context, supplierID string) ([]domain.SupplierTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SupplierTransaction, 0, 16)
	for _, tx := range s.supplierTransactions {
		if supplierID != "" && tx.SupplierID != supplierID {
			continue
		}
		result = append(result, tx)
	}
	// equal timestamps keep append order, the ledger is an audit trail
	slices.SortStableFunc(result, func(a, b domain.SupplierTransaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (s *Store) CreateSupplierTransactions(_ context.Context, txs []domain.SupplierTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx.ID == "" || tx.SupplierID == "" || !tx.Type.Valid() {
			return store.ErrInvalidTransaction
		}
	}
	s.supplierTransactions = append(s.supplierTransactions, txs...)
	return nil
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder, newProducts []domain.Product, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if po.ID == "" || len(po.Items) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.purchaseOrdersByID[po.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.suppliersByID[po.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}

	for _, p := range newProducts {
		if _, exists := s.productsByID[p.ID]; exists {
			return nil, store.ErrInvalidTransaction
		}
		s.productsByID[p.ID] = p
	}
	s.supplierTransactions = append(s.supplierTransactions, ledger...)
	s.purchaseOrdersByID[po.ID] = po
	created := po
	return &created, nil
}

func (s *Store) GetPurchaseOrderByID(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, exists := s.purchaseOrdersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPO := po
	return &copyPO, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, supplierID string, limit int) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.PurchaseOrder, 0, len(s.purchaseOrdersByID))
	for _, po := range s.purchaseOrdersByID {
		if supplierID != "" && po.SupplierID != supplierID {
			continue
		}
		orders = append(orders, po)
	}
	slices.SortFunc(orders, func(a, b domain.PurchaseOrder) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *Store) ReceivePurchaseOrder(_ context.Context, id string, apply func(po *domain.PurchaseOrder, products map[string]domain.Product) ([]domain.Product, []domain.Product, error), receivedAt time.Time) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	po, exists := s.purchaseOrdersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if po.IsReceived {
		return nil, store.ErrAlreadyReceived
	}

	products := make(map[string]domain.Product, len(po.Items))
	for _, item := range po.Items {
		if p, ok := s.productsByID[item.ProductID]; ok {
			products[item.ProductID] = p
		}
	}

	updated, inserted, err := apply(&po, products)
	if err != nil {
		return nil, err
	}
	for _, p := range updated {
		s.productsByID[p.ID] = p
	}
	for _, p := range inserted {
		s.productsByID[p.ID] = p
	}

	po.IsReceived = true
	po.ReceivedAt = &receivedAt
	po.Status = domain.PurchaseOrderStatusFor(po.TotalCents, po.PaidCents, true)
	s.purchaseOrdersByID[id] = po
	received := po
	return &received, nil
}

func (s *Store) UpdatePurchaseOrder(_ context.Context, po domain.PurchaseOrder, ledger []domain.SupplierTransaction) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.purchaseOrdersByID[po.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.supplierTransactions = append(s.supplierTransactions, ledger...)
	s.purchaseOrdersByID[po.ID] = po
	updated := po
	return &updated, nil
}

func (s *Store) ListRepairs(_ context.Context) ([]domain.RepairJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repairs := make([]domain.RepairJob, 0, len(s.repairsByID))
	for _, r := range s.repairsByID {
		repairs = append(repairs, r)
	}
	slices.SortFunc(repairs, func(a, b domain.RepairJob) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return repairs, nil
}

func (s *Store) GetRepairByID(_ context.Context, id string) (*domain.RepairJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.repairsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyJob := job
	return &copyJob, nil
}

func (s *Store) CreateRepair(_ context.Context, job domain.RepairJob) (*domain.RepairJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" || job.CustomerName == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.repairsByID[job.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	s.repairsByID[job.ID] = job
	created := job
	return &created, nil
}

func (s *Store) UpdateRepair(_ context.Context, job domain.RepairJob) (*domain.RepairJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.repairsByID[job.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.repairsByID[job.ID] = job
	updated := job
	return &updated, nil
}

func (s *Store) DeleteRepair(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.repairsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.repairsByID, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, from, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expensesByID))
	for _, e := range s.expensesByID {
		if !from.IsZero() && e.SpentAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.SpentAt.Before(to) {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.SpentAt.Equal(b.SpentAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.SpentAt.After(b.SpentAt) {
			return -1
		}
		return 1
	})
	return expenses, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" || expense.Title == "" || expense.AmountCents < 1 {
		return nil, store.ErrInvalidTransaction
	}
	if _, exists := s.expensesByID[expense.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expensesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context) (domain.ShopSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.ShopSettings) (domain.ShopSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.settings, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidTransaction
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidTransaction
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; !exists {
		return store.ErrNotFound
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ReplaceAll(_ context.Context, doc domain.BackupDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[string]domain.Product, len(doc.Products))
	for _, p := range doc.Products {
		if p.ID == "" {
			return store.ErrInvalidTransaction
		}
		products[p.ID] = p
	}
	sales := make(map[string]domain.Sale, len(doc.Sales))
	for _, sale := range doc.Sales {
		if sale.ID == "" {
			return store.ErrInvalidTransaction
		}
		sales[sale.ID] = sale
	}
	customers := make(map[string]domain.Customer, len(doc.Customers))
	for _, c := range doc.Customers {
		customers[c.ID] = c
	}
	suppliers := make(map[string]domain.Supplier, len(doc.Suppliers))
	for _, sup := range doc.Suppliers {
		suppliers[sup.ID] = sup
	}
	orders := make(map[string]domain.PurchaseOrder, len(doc.PurchaseOrders))
	for _, po := range doc.PurchaseOrders {
		orders[po.ID] = po
	}
	repairs := make(map[string]domain.RepairJob, len(doc.Repairs))
	for _, r := range doc.Repairs {
		repairs[r.ID] = r
	}
	expenses := make(map[string]domain.Expense, len(doc.Expenses))
	for _, e := range doc.Expenses {
		expenses[e.ID] = e
	}

	s.productsByID = products
	s.salesByID = sales
	s.customersByID = customers
	s.suppliersByID = suppliers
	s.supplierTransactions = append([]domain.SupplierTransaction(nil), doc.SupplierTransactions...)
	s.purchaseOrdersByID = orders
	s.repairsByID = repairs
	s.expensesByID = expenses
	s.settings = doc.Settings
	return nil
}
