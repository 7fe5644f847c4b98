package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickshop/storefront-backend/internal/orders"
	"github.com/quickshop/storefront-backend/pkg/enums"
	"github.com/quickshop/storefront-backend/pkg/logger"
	"github.com/quickshop/storefront-backend/pkg/outbox"
	"github.com/quickshop/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// DailySalesJob aggregates the previous day's sales per product and emits a
// single report event for downstream consumers.
type DailySalesJob struct {
	tx     txRunner
	orders orders.Repository
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewDailySalesJob builds the daily sales report job.
func NewDailySalesJob(tx txRunner, ordersRepo orders.Repository, publisher outboxPublisher, logg *logger.Logger) (*DailySalesJob, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &DailySalesJob{
		tx:     tx,
		orders: ordersRepo,
		outbox: publisher,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Name implements cron.Job.
func (j *DailySalesJob) Name() string {
	return "daily_sales_report"
}

// Run reports on the previous UTC calendar day. The event is deduplicated per
// day, so re-running after a crash or across restarts emits nothing new.
func (j *DailySalesJob) Run(ctx context.Context) error {
	dayEnd := j.now().UTC().Truncate(24 * time.Hour)
	dayStart := dayEnd.Add(-24 * time.Hour)
	return j.report(ctx, dayStart, dayEnd)
}

func (j *DailySalesJob) report(ctx context.Context, dayStart, dayEnd time.Time) error {
	items, err := j.orders.ListItemsCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	byProduct := make(map[uuid.UUID]*payloads.DailySalesReportRow)
	for _, item := range items {
		row, ok := byProduct[item.ProductID]
		if !ok {
			row = &payloads.DailySalesReportRow{ProductID: item.ProductID}
			if item.Product != nil {
				row.ProductName = item.Product.Name
			}
			byProduct[item.ProductID] = row
		}
		row.QuantitySold += item.Quantity
		row.RevenueCents += item.Quantity * item.UnitPriceCents
	}

	rows := make([]payloads.DailySalesReportRow, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, k int) bool {
		return rows[i].ProductName < rows[k].ProductName
	})

	date := dayStart.Format("2006-01-02")
	event := outbox.DomainEvent{
		EventType:     enums.EventDailySalesReport,
		AggregateType: enums.AggregateReport,
		AggregateID:   reportID(date),
		Version:       1,
		Data: payloads.DailySalesReportEvent{
			Date: date,
			Rows: rows,
		},
	}

	err = j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return fmt.Errorf("emit daily sales report: %w", err)
	}

	if j.logg != nil {
		fields := map[string]any{"date": date, "products": len(rows)}
		j.logg.Info(j.logg.WithFields(ctx, fields), "daily sales report emitted")
	}
	return nil
}

// reportID derives a stable aggregate id from the report date so the outbox
// dedupe index can reject repeats.
func reportID(date string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("daily-sales:"+date))
}
