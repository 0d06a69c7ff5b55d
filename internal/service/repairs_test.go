package service

import (
	"errors"
	"strings"
	"testing"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

func TestCreateRepairAssignsJobNumber(t *testing.T) {
	svc := newTestService()

	job, err := svc.CreateRepair(staffContext(), domain.RepairCreateRequest{
		CustomerName:       "Arjun Nair",
		CustomerPhone:      "+91-99887-12345",
		Device:             "iPhone 12",
		Issue:              "battery drains fast",
		EstimatedCostCents: 249900,
		AdvanceCents:       50000,
	})
	if err != nil {
		t.Fatalf("create repair: %v", err)
	}

	if !strings.HasPrefix(job.JobNumber, "JOB-") || len(job.JobNumber) != len("JOB-0000") {
		t.Fatalf("unexpected job number %q", job.JobNumber)
	}
	if job.Status != domain.RepairReceived {
		t.Fatalf("expected status received, got %s", job.Status)
	}
	if job.DeliveredAt != nil {
		t.Fatal("new job must not be delivered")
	}
}

func TestRepairStatusTransitions(t *testing.T) {
	svc := newTestService()

	job, err := svc.CreateRepair(staffContext(), domain.RepairCreateRequest{
		CustomerName: "Meera Pillai",
		Device:       "Galaxy A54",
		Issue:        "broken display",
	})
	if err != nil {
		t.Fatalf("create repair: %v", err)
	}

	inProgress := domain.RepairInProgress
	if _, err := svc.UpdateRepair(staffContext(), job.ID, domain.RepairUpdateRequest{Status: &inProgress}); err != nil {
		t.Fatalf("move to in-progress: %v", err)
	}

	delivered := domain.RepairDelivered
	updated, err := svc.UpdateRepair(staffContext(), job.ID, domain.RepairUpdateRequest{Status: &delivered})
	if err != nil {
		t.Fatalf("move to delivered: %v", err)
	}
	if updated.DeliveredAt == nil {
		t.Fatal("expected delivered timestamp")
	}

	// delivered is terminal
	ready := domain.RepairReady
	if _, err := svc.UpdateRepair(staffContext(), job.ID, domain.RepairUpdateRequest{Status: &ready}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected leaving delivered to fail, got %v", err)
	}

	// non-status edits on a delivered job still work
	tech := "Sanjay"
	edited, err := svc.UpdateRepair(staffContext(), job.ID, domain.RepairUpdateRequest{Technician: &tech})
	if err != nil {
		t.Fatalf("edit delivered job: %v", err)
	}
	if edited.Technician != "Sanjay" {
		t.Fatalf("technician not updated: %q", edited.Technician)
	}
}

func TestRepairRejectsUnknownStatus(t *testing.T) {
	svc := newTestService()

	job, err := svc.CreateRepair(staffContext(), domain.RepairCreateRequest{
		CustomerName: "Arjun Nair",
		Device:       "MacBook Air",
	})
	if err != nil {
		t.Fatalf("create repair: %v", err)
	}

	bogus := domain.RepairStatus("exploded")
	if _, err := svc.UpdateRepair(staffContext(), job.ID, domain.RepairUpdateRequest{Status: &bogus}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected unknown status to fail, got %v", err)
	}
}

func TestDeleteRepairRequiresAdmin(t *testing.T) {
	svc := newTestService()

	job, err := svc.CreateRepair(staffContext(), domain.RepairCreateRequest{
		CustomerName: "Arjun Nair",
		Device:       "iPad",
	})
	if err != nil {
		t.Fatalf("create repair: %v", err)
	}

	if err := svc.DeleteRepair(staffContext(), job.ID); err == nil {
		t.Fatal("expected staff delete to be rejected")
	}
	if err := svc.DeleteRepair(adminContext(), job.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := newTestService()

	if _, err := svc.CreateExpense(adminContext(), domain.ExpenseCreateRequest{
		Title:       "negative",
		AmountCents: 0,
		Category:    domain.ExpenseOther,
	}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected zero amount to fail, got %v", err)
	}

	if _, err := svc.CreateExpense(adminContext(), domain.ExpenseCreateRequest{
		Title:       "snacks",
		AmountCents: 1500,
		Category:    domain.ExpenseCategory("FUN"),
	}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected unknown category to fail, got %v", err)
	}

	expense, err := svc.CreateExpense(adminContext(), domain.ExpenseCreateRequest{
		Title:       "October rent",
		AmountCents: 150000,
		Category:    domain.ExpenseRent,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if expense.SpentAt.IsZero() {
		t.Fatal("expected spent_at defaulted to now")
	}
}
