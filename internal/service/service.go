package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"electropos/backend/internal/cache"
	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
	"electropos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	logger    *zap.Logger
	reportTTL time.Duration
}

func New(repo store.Repository, reports cache.ReportCache, logger *zap.Logger, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reportTTL <= 0 {
		reportTTL = 30 * time.Second
	}

	return &Service{
		repo:      repo,
		reports:   reports,
		logger:    logger,
		reportTTL: reportTTL,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidTransaction
	}
	if req.SellPriceCents < 1 || req.BuyPriceCents < 0 || req.Stock < 0 || req.WarrantyMonths < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	product := domain.Product{
		ID:             xid.New("prod"),
		SKU:            req.SKU,
		Name:           req.Name,
		Brand:          strings.TrimSpace(req.Brand),
		SerialNumber:   strings.TrimSpace(req.SerialNumber),
		Category:       req.Category,
		BuyPriceCents:  req.BuyPriceCents,
		SellPriceCents: req.SellPriceCents,
		Stock:          req.Stock,
		SupplierID:     req.SupplierID,
		WarrantyMonths: req.WarrantyMonths,
		CreatedAt:      time.Now().UTC(),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("product created",
		zap.String("product_id", created.ID),
		zap.String("sku", created.SKU),
		zap.Int64("sell_price_cents", created.SellPriceCents))

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.SKU != nil {
		updated.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Name = name
	}
	if req.Brand != nil {
		updated.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.SerialNumber != nil {
		updated.SerialNumber = strings.TrimSpace(*req.SerialNumber)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Category = category
	}
	if req.BuyPriceCents != nil {
		if *req.BuyPriceCents < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.BuyPriceCents = *req.BuyPriceCents
	}
	if req.SellPriceCents != nil {
		if *req.SellPriceCents < 1 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.SellPriceCents = *req.SellPriceCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Stock = *req.Stock
	}
	if req.SupplierID != nil {
		updated.SupplierID = *req.SupplierID
	}
	if req.WarrantyMonths != nil {
		if *req.WarrantyMonths < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.WarrantyMonths = *req.WarrantyMonths
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidTransaction
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, store.ErrInvalidTransaction
		}
		updated.Name = name
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

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCustomer(ctx, id)
}

func (s *Service) GetSettings(ctx context.Context) (domain.ShopSettings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.ShopSettings) (domain.ShopSettings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ShopSettings{}, err
	}
	settings.StoreName = strings.TrimSpace(settings.StoreName)
	if settings.StoreName == "" {
		return domain.ShopSettings{}, store.ErrInvalidTransaction
	}
	return s.repo.UpdateSettings(ctx, settings)
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.UserView, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.UserView{}, err
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 8 {
		return domain.UserView{}, store.ErrInvalidTransaction
	}
	role := strings.TrimSpace(req.Role)
	if role != "admin" && role != "staff" {
		return domain.UserView{}, store.ErrInvalidTransaction
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserView{}, err
	}

	account := domain.UserAccount{
		Username:    req.Username,
		Password:    string(hash),
		Role:        role,
		Permissions: req.Permissions,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, account); err != nil {
		return domain.UserView{}, err
	}

	s.logger.Info("user created", zap.String("username", account.Username), zap.String("role", account.Role))

	return toUserView(account), nil
}

func (s *Service) UpdateUser(ctx context.Context, username string, req domain.UserUpdateRequest) (domain.UserView, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.UserView{}, err
	}

	account, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.UserView{}, err
	}
	updated := *account

	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if role != "admin" && role != "staff" {
			return domain.UserView{}, store.ErrInvalidTransaction
		}
		updated.Role = role
	}
	if req.Permissions != nil {
		updated.Permissions = req.Permissions
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return domain.UserView{}, store.ErrInvalidTransaction
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.UserView{}, err
		}
		updated.Password = string(hash)
	}

	if err := s.repo.UpdateUser(ctx, updated); err != nil {
		return domain.UserView{}, err
	}

	s.logger.Info("user updated", zap.String("username", updated.Username), zap.String("role", updated.Role))

	return toUserView(updated), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.UserView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, toUserView(account))
	}
	return views, nil
}

func toUserView(account domain.UserAccount) domain.UserView {
	permissions := account.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return domain.UserView{
		Username:    account.Username,
		Role:        account.Role,
		Permissions: permissions,
		Active:      account.Active,
		CreatedAt:   account.CreatedAt,
	}
}
