package service

import (
	"strings"
	"testing"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store/memory"
)

func TestBackupExportRequiresAdmin(t *testing.T) {
	svc := newTestService()

	if _, err := svc.ExportBackup(staffContext()); err == nil || !strings.Contains(err.Error(), "admin role required") {
		t.Fatalf("expected admin gate, got %v", err)
	}
}

func TestBackupRoundTripKeepsIDs(t *testing.T) {
	source := newTestService()

	resp, err := source.Checkout(staffContext(), domain.CheckoutRequest{
		Items:      []domain.CartItem{{ProductID: "prod-sd-card", Qty: 2}},
		CustomerID: "cust-walkin-02",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := source.CreateRepair(staffContext(), domain.RepairCreateRequest{
		CustomerName: "Meera Pillai",
		Device:       "Pixel 7",
		Issue:        "cracked screen",
	}); err != nil {
		t.Fatalf("create repair: %v", err)
	}

	doc, err := source.ExportBackup(adminContext())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Sales) != 1 || len(doc.Repairs) != 1 {
		t.Fatalf("unexpected export sizes: sales=%d repairs=%d", len(doc.Sales), len(doc.Repairs))
	}

	target := New(memory.NewSeeded(), nil, nil, 0)
	if err := target.ImportBackup(adminContext(), doc); err != nil {
		t.Fatalf("import: %v", err)
	}

	sale, err := target.GetSale(staffContext(), resp.Sale.ID)
	if err != nil {
		t.Fatalf("sale id not preserved: %v", err)
	}
	if sale.InvoiceNo != resp.Sale.InvoiceNo {
		t.Fatalf("invoice changed on import: %q vs %q", sale.InvoiceNo, resp.Sale.InvoiceNo)
	}

	// the seeded customer was bumped on the source, the import carries that over
	customer, err := target.GetCustomer(staffContext(), "cust-walkin-02")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if customer.VisitCount != 1 {
		t.Fatalf("expected imported visit count 1, got %d", customer.VisitCount)
	}

	settings, err := target.GetSettings(staffContext())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.StoreName != doc.Settings.StoreName {
		t.Fatalf("settings not imported: %q", settings.StoreName)
	}
}

func TestBackupImportRejectsMissingIDs(t *testing.T) {
	svc := newTestService()

	doc, err := svc.ExportBackup(adminContext())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	doc.Products = append(doc.Products, domain.Product{Name: "no id"})

	if err := svc.ImportBackup(adminContext(), doc); err == nil {
		t.Fatal("expected import to reject a product without an id")
	}
}
