package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/domain"
	"electropos/backend/internal/store"
)

const (
	GranularityDay   = "day"
	GranularityMonth = "month"
)

// SalesReportRange aggregates sales, supplier flows and expenses over a date
// range. Results are cached briefly since the dashboard polls this endpoint.
func (s *Service) SalesReportRange(ctx context.Context, from, to time.Time, granularity string) (domain.SalesReport, error) {
	if granularity == "" {
		granularity = GranularityDay
	}
	if granularity != GranularityDay && granularity != GranularityMonth {
		return domain.SalesReport{}, store.ErrInvalidTransaction
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return domain.SalesReport{}, store.ErrInvalidTransaction
	}

	cacheKey := fmt.Sprintf("report:sales:%s:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"), granularity)
	if cached, hit, err := s.reports.Get(ctx, cacheKey); err == nil && hit {
		return *cached, nil
	} else if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	// to is inclusive as a calendar date, the store range end is exclusive.
	rangeEnd := to.AddDate(0, 0, 1)

	sales, err := s.repo.ListSales(ctx, from, rangeEnd, 0)
	if err != nil {
		return domain.SalesReport{}, err
	}

	report := domain.SalesReport{
		From:        from.Format("2006-01-02"),
		To:          to.Format("2006-01-02"),
		Granularity: granularity,
	}

	bucketFormat := "2006-01-02"
	if granularity == GranularityMonth {
		bucketFormat = "2006-01"
	}

	buckets := make(map[string]*domain.ReportBucket)
	byPayment := make(map[domain.PaymentMethod]*domain.ReportPayment)
	for _, sale := range sales {
		report.Transactions++
		report.RevenueCents += sale.TotalCents
		report.DiscountCents += sale.DiscountCents
		report.ProfitCents += sale.ProfitCents
		report.OutstandingDueCents += sale.DueCents
		for _, item := range sale.Items {
			report.ItemCount += int64(item.Qty)
		}

		label := sale.CreatedAt.Format(bucketFormat)
		bucket, ok := buckets[label]
		if !ok {
			bucket = &domain.ReportBucket{Label: label}
			buckets[label] = bucket
		}
		bucket.Transactions++
		bucket.RevenueCents += sale.TotalCents
		bucket.ProfitCents += sale.ProfitCents
		for _, item := range sale.Items {
			bucket.ItemCount += int64(item.Qty)
		}

		pay, ok := byPayment[sale.PaymentMethod]
		if !ok {
			pay = &domain.ReportPayment{Method: sale.PaymentMethod}
			byPayment[sale.PaymentMethod] = pay
		}
		pay.Transactions++
		pay.TotalCents += sale.TotalCents
	}

	supplierTxs, err := s.repo.ListSupplierTransactions(ctx, "")
	if err != nil {
		return domain.SalesReport{}, err
	}
	for _, tx := range supplierTxs {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(rangeEnd) {
			continue
		}
		if tx.Type == domain.SupplierTxPayment || tx.Type == domain.SupplierTxSettlement {
			report.SupplierOutflowCents += tx.AmountCents
		}
	}

	orders, err := s.repo.ListPurchaseOrders(ctx, "", 0)
	if err != nil {
		return domain.SalesReport{}, err
	}
	for _, po := range orders {
		report.SupplierDueCents += po.DueCents
	}

	expenses, err := s.repo.ListExpenses(ctx, from, rangeEnd)
	if err != nil {
		return domain.SalesReport{}, err
	}
	byExpense := make(map[domain.ExpenseCategory]*domain.ReportExpense)
	for _, e := range expenses {
		report.ExpenseCents += e.AmountCents
		entry, ok := byExpense[e.Category]
		if !ok {
			entry = &domain.ReportExpense{Category: e.Category}
			byExpense[e.Category] = entry
		}
		entry.TotalCents += e.AmountCents
		entry.EntryCount++
	}

	report.NetCents = report.ProfitCents - report.ExpenseCents

	report.Buckets = make([]domain.ReportBucket, 0, len(buckets))
	for _, b := range buckets {
		report.Buckets = append(report.Buckets, *b)
	}
	sort.Slice(report.Buckets, func(i, j int) bool {
		return report.Buckets[i].Label < report.Buckets[j].Label
	})

	report.ByPayment = make([]domain.ReportPayment, 0, len(byPayment))
	for _, p := range byPayment {
		report.ByPayment = append(report.ByPayment, *p)
	}
	sort.Slice(report.ByPayment, func(i, j int) bool {
		return report.ByPayment[i].Method < report.ByPayment[j].Method
	})

	report.ByExpense = make([]domain.ReportExpense, 0, len(byExpense))
	for _, e := range byExpense {
		report.ByExpense = append(report.ByExpense, *e)
	}
	sort.Slice(report.ByExpense, func(i, j int) bool {
		return report.ByExpense[i].Category < report.ByExpense[j].Category
	})

	if err := s.reports.Set(ctx, cacheKey, &report, s.reportTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}

	return report, nil
}
