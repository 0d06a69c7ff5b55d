package domain

import "time"

type Product struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Brand          string    `json:"brand,omitempty"`
	SerialNumber   string    `json:"serial_number,omitempty"`
	Category       string    `json:"category"`
	BuyPriceCents  int64     `json:"buy_price_cents"`
	SellPriceCents int64     `json:"sell_price_cents"`
	Stock          int       `json:"stock"`
	SupplierID     string    `json:"supplier_id,omitempty"`
	WarrantyMonths int       `json:"warranty_months"`
	CreatedAt      time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	SerialNumber   string `json:"serial_number"`
	Category       string `json:"category"`
	BuyPriceCents  int64  `json:"buy_price_cents"`
	SellPriceCents int64  `json:"sell_price_cents"`
	Stock          int    `json:"stock"`
	SupplierID     string `json:"supplier_id"`
	WarrantyMonths int    `json:"warranty_months"`
}

type ProductUpdateRequest struct {
	SKU            *string `json:"sku,omitempty"`
	Name           *string `json:"name,omitempty"`
	Brand          *string `json:"brand,omitempty"`
	SerialNumber   *string `json:"serial_number,omitempty"`
	Category       *string `json:"category,omitempty"`
	BuyPriceCents  *int64  `json:"buy_price_cents,omitempty"`
	SellPriceCents *int64  `json:"sell_price_cents,omitempty"`
	Stock          *int    `json:"stock,omitempty"`
	SupplierID     *string `json:"supplier_id,omitempty"`
	WarrantyMonths *int    `json:"warranty_months,omitempty"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// SaleItem is the line-item snapshot taken at checkout time. Later price
// edits on the product never change a recorded sale.
type SaleItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	SellPriceCents int64  `json:"sell_price_cents"`
	BuyPriceCents  int64  `json:"buy_price_cents"`
	TotalCents     int64  `json:"total_cents"`
}

type PaymentRecord struct {
	ID          string        `json:"id"`
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"method"`
	Note        string        `json:"note,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Sale struct {
	ID            string          `json:"id"`
	InvoiceNo     string          `json:"invoice_no"`
	Items         []SaleItem      `json:"items"`
	SubtotalCents int64           `json:"subtotal_cents"`
	DiscountCents int64           `json:"discount_cents"`
	TotalCents    int64           `json:"total_cents"`
	PaidCents     int64           `json:"paid_cents"`
	DueCents      int64           `json:"due_cents"`
	ProfitCents   int64           `json:"profit_cents"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Payments      []PaymentRecord `json:"payments"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CheckoutRequest struct {
	Items           []CartItem    `json:"items"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	DiscountCents   int64         `json:"discount_cents"`
	DiscountPercent float64       `json:"discount_percent,omitempty"`
	// PaidCents nil means the sale is paid in full.
	PaidCents    *int64 `json:"paid_cents,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type CheckoutResponse struct {
	Sale Sale `json:"sale"`
}

type SalePaymentRequest struct {
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"method"`
	Note        string        `json:"note,omitempty"`
}

type SaleResponse struct {
	Sale Sale `json:"sale"`
}

type SaleListResponse struct {
	Sales []Sale `json:"sales"`
}

type Customer struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone,omitempty"`
	Email               string     `json:"email,omitempty"`
	Address             string     `json:"address,omitempty"`
	TotalPurchasesCents int64      `json:"total_purchases_cents"`
	LoyaltyPoints       int64      `json:"loyalty_points"`
	VisitCount          int        `json:"visit_count"`
	LastVisit           *time.Time `json:"last_visit,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Supplier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	PaymentTerms  string    `json:"payment_terms,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentTerms  string `json:"payment_terms"`
}

type SupplierUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	PaymentTerms  *string `json:"payment_terms,omitempty"`
}

// SupplierBalanceResponse carries the outstanding balance recomputed from the
// transaction log: bills minus everything that reduces the debt.
type SupplierBalanceResponse struct {
	SupplierID   string                `json:"supplier_id"`
	BalanceCents int64                 `json:"balance_cents"`
	Transactions []SupplierTransaction `json:"transactions"`
}

type SupplierTransaction struct {
	ID                string                    `json:"id"`
	SupplierID        string                    `json:"supplier_id"`
	Type              SupplierTransactionType   `json:"type"`
	AmountCents       int64                     `json:"amount_cents"`
	Method            SupplierTransactionMethod `json:"method,omitempty"`
	ReferenceID       string                    `json:"reference_id,omitempty"`
	Description       string                    `json:"description,omitempty"`
	BalanceAfterCents int64                     `json:"balance_after_cents"`
	CreatedAt         time.Time                 `json:"created_at"`
}

type PurchaseOrderItem struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Qty           int    `json:"qty"`
	BuyPriceCents int64  `json:"buy_price_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// PurchaseOrderItemInput references an existing product by id, or defines a
// new one (registered with zero stock until the order is received).
type PurchaseOrderItemInput struct {
	ProductID      string `json:"product_id,omitempty"`
	Name           string `json:"name,omitempty"`
	SKU            string `json:"sku,omitempty"`
	Category       string `json:"category,omitempty"`
	Qty            int    `json:"qty"`
	BuyPriceCents  int64  `json:"buy_price_cents"`
	SellPriceCents int64  `json:"sell_price_cents,omitempty"`
}

type PurchaseOrder struct {
	ID          string              `json:"id"`
	SupplierID  string              `json:"supplier_id"`
	BillNumber  string              `json:"bill_number,omitempty"`
	Items       []PurchaseOrderItem `json:"items"`
	TotalCents  int64               `json:"total_cents"`
	PaidCents   int64               `json:"paid_cents"`
	DueCents    int64               `json:"due_cents"`
	Status      PurchaseOrderStatus `json:"status"`
	IsReceived  bool                `json:"is_received"`
	Payments    []PaymentRecord     `json:"payments"`
	ArrivalDate *time.Time          `json:"arrival_date,omitempty"`
	ReceivedAt  *time.Time          `json:"received_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type PurchaseOrderCreateRequest struct {
	SupplierID  string                    `json:"supplier_id"`
	BillNumber  string                    `json:"bill_number"`
	Items       []PurchaseOrderItemInput  `json:"items"`
	PaidCents   int64                     `json:"paid_cents"`
	Method      SupplierTransactionMethod `json:"method"`
	ArrivalDate *time.Time                `json:"arrival_date,omitempty"`
}

type PurchaseOrderPaymentRequest struct {
	AmountCents int64                     `json:"amount_cents"`
	Method      SupplierTransactionMethod `json:"method"`
	Note        string                    `json:"note,omitempty"`
}

type PurchaseOrderResponse struct {
	PurchaseOrder PurchaseOrder `json:"purchase_order"`
}

type PurchaseOrderListResponse struct {
	PurchaseOrders []PurchaseOrder `json:"purchase_orders"`
}

type RepairJob struct {
	ID                 string       `json:"id"`
	JobNumber          string       `json:"job_number"`
	CustomerName       string       `json:"customer_name"`
	CustomerPhone      string       `json:"customer_phone,omitempty"`
	Device             string       `json:"device"`
	Issue              string       `json:"issue"`
	Status             RepairStatus `json:"status"`
	EstimatedCostCents int64        `json:"estimated_cost_cents"`
	AdvanceCents       int64        `json:"advance_cents"`
	Technician         string       `json:"technician,omitempty"`
	Notes              string       `json:"notes,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	DeliveredAt        *time.Time   `json:"delivered_at,omitempty"`
}

type RepairCreateRequest struct {
	CustomerName       string `json:"customer_name"`
	CustomerPhone      string `json:"customer_phone"`
	Device             string `json:"device"`
	Issue              string `json:"issue"`
	EstimatedCostCents int64  `json:"estimated_cost_cents"`
	AdvanceCents       int64  `json:"advance_cents"`
	Technician         string `json:"technician"`
	Notes              string `json:"notes"`
}

type RepairUpdateRequest struct {
	CustomerName       *string       `json:"customer_name,omitempty"`
	CustomerPhone      *string       `json:"customer_phone,omitempty"`
	Device             *string       `json:"device,omitempty"`
	Issue              *string       `json:"issue,omitempty"`
	Status             *RepairStatus `json:"status,omitempty"`
	EstimatedCostCents *int64        `json:"estimated_cost_cents,omitempty"`
	AdvanceCents       *int64        `json:"advance_cents,omitempty"`
	Technician         *string       `json:"technician,omitempty"`
	Notes              *string       `json:"notes,omitempty"`
}

type RepairResponse struct {
	Repair RepairJob `json:"repair"`
}

type RepairListResponse struct {
	Repairs []RepairJob `json:"repairs"`
}

type Expense struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	AmountCents int64           `json:"amount_cents"`
	Category    ExpenseCategory `json:"category"`
	Notes       string          `json:"notes,omitempty"`
	SpentAt     time.Time       `json:"spent_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Title       string          `json:"title"`
	AmountCents int64           `json:"amount_cents"`
	Category    ExpenseCategory `json:"category"`
	Notes       string          `json:"notes"`
	SpentAt     *time.Time      `json:"spent_at,omitempty"`
}

type ShopSettings struct {
	StoreName     string `json:"store_name"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Website       string `json:"website,omitempty"`
	VATNumber     string `json:"vat_number,omitempty"`
	ReceiptHeader string `json:"receipt_header,omitempty"`
	ReceiptFooter string `json:"receipt_footer,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	ExpiresAt   string   `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserCreateRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// UserUpdateRequest carries partial account edits; nil fields are left as-is.
type UserUpdateRequest struct {
	Password    *string  `json:"password"`
	Role        *string  `json:"role"`
	Permissions []string `json:"permissions"`
	Active      *bool    `json:"active"`
}

type UserView struct {
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username    string
	Password    string
	Role        string
	Permissions []string
	Active      bool
	CreatedAt   time.Time
}

type ReportBucket struct {
	Label        string `json:"label"`
	Transactions int64  `json:"transactions"`
	ItemCount    int64  `json:"item_count"`
	RevenueCents int64  `json:"revenue_cents"`
	ProfitCents  int64  `json:"profit_cents"`
}

type ReportPayment struct {
	Method       PaymentMethod `json:"method"`
	Transactions int64         `json:"transactions"`
	TotalCents   int64         `json:"total_cents"`
}

type ReportExpense struct {
	Category   ExpenseCategory `json:"category"`
	TotalCents int64           `json:"total_cents"`
	EntryCount int64           `json:"entry_count"`
}

type SalesReport struct {
	From                 string          `json:"from"`
	To                   string          `json:"to"`
	Granularity          string          `json:"granularity"`
	Transactions         int64           `json:"transactions"`
	ItemCount            int64           `json:"item_count"`
	RevenueCents         int64           `json:"revenue_cents"`
	DiscountCents        int64           `json:"discount_cents"`
	ProfitCents          int64           `json:"profit_cents"`
	OutstandingDueCents  int64           `json:"outstanding_due_cents"`
	SupplierOutflowCents int64           `json:"supplier_outflow_cents"`
	SupplierDueCents     int64           `json:"supplier_due_cents"`
	ExpenseCents         int64           `json:"expense_cents"`
	NetCents             int64           `json:"net_cents"`
	Buckets              []ReportBucket  `json:"buckets"`
	ByPayment            []ReportPayment `json:"by_payment"`
	ByExpense            []ReportExpense `json:"by_expense"`
}

// BackupDocument is the export/import container: one key per collection plus
// the settings singleton. Import replaces each collection wholesale and
// preserves the record ids found in the document.
type BackupDocument struct {
	ExportedAt           time.Time             `json:"exported_at"`
	Products             []Product             `json:"products"`
	Sales                []Sale                `json:"sales"`
	Customers            []Customer            `json:"customers"`
	Suppliers            []Supplier            `json:"suppliers"`
	SupplierTransactions []SupplierTransaction `json:"supplier_transactions"`
	PurchaseOrders       []PurchaseOrder       `json:"purchase_orders"`
	Repairs              []RepairJob           `json:"repairs"`
	Expenses             []Expense             `json:"expenses"`
	Settings             ShopSettings          `json:"settings"`
}
