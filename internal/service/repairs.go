package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
	"electropos/backend/internal/xid"
)

// newJobNumber keeps the short ticket format written on the paper job cards.
func newJobNumber() string {
	return fmt.Sprintf("JOB-%04d", rand.Intn(10000))
}

func (s *Service) ListRepairs(ctx context.Context) ([]domain.RepairJob, error) {
	return s.repo.ListRepairs(ctx)
}

func (s *Service) GetRepair(ctx context.Context, id string) (domain.RepairJob, error) {
	job, err := s.repo.GetRepairByID(ctx, id)
	if err != nil {
		return domain.RepairJob{}, err
	}
	return *job, nil
}

func (s *Service) CreateRepair(ctx context.Context, req domain.RepairCreateRequest) (domain.RepairJob, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Device = strings.TrimSpace(req.Device)
	if req.CustomerName == "" || req.Device == "" {
		return domain.RepairJob{}, store.ErrInvalidTransaction
	}
	if req.EstimatedCostCents < 0 || req.AdvanceCents < 0 {
		return domain.RepairJob{}, store.ErrInvalidTransaction
	}

	now := time.Now().UTC()
	job := domain.RepairJob{
		ID:                 xid.New("rep"),
		JobNumber:          newJobNumber(),
		CustomerName:       req.CustomerName,
		CustomerPhone:      strings.TrimSpace(req.CustomerPhone),
		Device:             req.Device,
		Issue:              strings.TrimSpace(req.Issue),
		Status:             domain.RepairReceived,
		EstimatedCostCents: req.EstimatedCostCents,
		AdvanceCents:       req.AdvanceCents,
		Technician:         strings.TrimSpace(req.Technician),
		Notes:              strings.TrimSpace(req.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.repo.CreateRepair(ctx, job)
	if err != nil {
		return domain.RepairJob{}, err
	}

	s.logger.Info("repair job opened",
		zap.String("repair_id", created.ID),
		zap.String("job_number", created.JobNumber),
		zap.String("device", created.Device))

	return *created, nil
}

func (s *Service) UpdateRepair(ctx context.Context, id string, req domain.RepairUpdateRequest) (domain.RepairJob, error) {
	existing, err := s.repo.GetRepairByID(ctx, id)
	if err != nil {
		return domain.RepairJob{}, err
	}

	updated := *existing
	if req.Status != nil && *req.Status != existing.Status {
		if err := domain.RepairTransition(existing.Status, *req.Status); err != nil {
			return domain.RepairJob{}, store.ErrInvalidTransaction
		}
		updated.Status = *req.Status
		if *req.Status == domain.RepairDelivered {
			now := time.Now().UTC()
			updated.DeliveredAt = &now
		}
	}
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return domain.RepairJob{}, store.ErrInvalidTransaction
		}
		updated.CustomerName = name
	}
	if req.CustomerPhone != nil {
		updated.CustomerPhone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.Device != nil {
		device := strings.TrimSpace(*req.Device)
		if device == "" {
			return domain.RepairJob{}, store.ErrInvalidTransaction
		}
		updated.Device = device
	}
	if req.Issue != nil {
		updated.Issue = strings.TrimSpace(*req.Issue)
	}
	if req.EstimatedCostCents != nil {
		if *req.EstimatedCostCents < 0 {
			return domain.RepairJob{}, store.ErrInvalidTransaction
		}
		updated.EstimatedCostCents = *req.EstimatedCostCents
	}
	if req.AdvanceCents != nil {
		if *req.AdvanceCents < 0 {
			return domain.RepairJob{}, store.ErrInvalidTransaction
		}
		updated.AdvanceCents = *req.AdvanceCents
	}
	if req.Technician != nil {
		updated.Technician = strings.TrimSpace(*req.Technician)
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}
	updated.UpdatedAt = time.Now().UTC()

	saved, err := s.repo.UpdateRepair(ctx, updated)
	if err != nil {
		return domain.RepairJob{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteRepair(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteRepair(ctx, id)
}

func (s *Service) ListExpenses(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, from, to)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.AmountCents < 1 {
		return domain.Expense{}, store.ErrInvalidTransaction
	}
	if !req.Category.Valid() {
		return domain.Expense{}, store.ErrInvalidTransaction
	}

	now := time.Now().UTC()
	spentAt := now
	if req.SpentAt != nil {
		spentAt = req.SpentAt.UTC()
	}

	expense := domain.Expense{
		ID:          xid.New("exp"),
		Title:       req.Title,
		AmountCents: req.AmountCents,
		Category:    req.Category,
		Notes:       strings.TrimSpace(req.Notes),
		SpentAt:     spentAt,
		CreatedAt:   now,
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteExpense(ctx, id)
}
