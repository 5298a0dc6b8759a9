package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

const (
	defaultStaleSettlementAge = 72 * time.Hour
	defaultRefundLookback     = 48 * time.Hour
	defaultAuditBatch         = 500

	findingUnsettled          = "unsettled_charge"
	findingMissingRefundEntry = "missing_refund_entry"
)

type settlementOrderReader interface {
	ListChargedUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListRefundedSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error)
}

type refundLedger interface {
	HasEntry(ctx context.Context, orderID uuid.UUID, source enums.WalletEntrySource) (bool, error)
}

type auditRecorder interface {
	AddAuditFindings(kind string, count int)
}

// SettlementAuditJobParams configure the settlement audit.
type SettlementAuditJobParams struct {
	Logger     *logger.Logger
	Orders     settlementOrderReader
	Ledger     refundLedger
	Metrics    auditRecorder
	StaleAfter time.Duration
	Lookback   time.Duration
	BatchSize  int
}

// NewSettlementAuditJob reports settleable orders nobody refunded and
// refunded orders whose wallet credit is missing from the ledger. It only
// reads; fixing a finding is an admin decision.
func NewSettlementAuditJob(params SettlementAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleSettlementAge
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultRefundLookback
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultAuditBatch
	}
	return &settlementAuditJob{
		logg:       params.Logger,
		orders:     params.Orders,
		ledger:     params.Ledger,
		metrics:    params.Metrics,
		staleAfter: staleAfter,
		lookback:   lookback,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type settlementAuditJob struct {
	logg       *logger.Logger
	orders     settlementOrderReader
	ledger     refundLedger
	metrics    auditRecorder
	staleAfter time.Duration
	lookback   time.Duration
	batch      int
	now        func() time.Time
}

func (j *settlementAuditJob) Name() string { return "settlement-audit" }

func (j *settlementAuditJob) Run(ctx context.Context) error {
	return multierr.Combine(
		j.auditUnsettled(ctx),
		j.auditRefundEntries(ctx),
	)
}

func (j *settlementAuditJob) auditUnsettled(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	orders, err := j.orders.ListChargedUnsettledBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list unsettled orders: %w", err)
	}
	for _, order := range orders {
		logCtx := j.logg.WithOrderID(ctx, order.ID.String())
		logCtx = j.logg.WithFields(logCtx, map[string]any{
			"status":      order.Status,
			"charge_kind": order.ChargeKind,
			"updated_at":  order.UpdatedAt,
		})
		j.logg.Warn(logCtx, "order awaiting refund settlement")
	}
	j.record(findingUnsettled, len(orders))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"findings": len(orders),
	})
	j.logg.Info(logCtx, "unsettled order audit complete")
	return nil
}

func (j *settlementAuditJob) auditRefundEntries(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	orders, err := j.orders.ListRefundedSince(ctx, since, j.batch)
	if err != nil {
		return fmt.Errorf("list refunded orders: %w", err)
	}

	var errs error
	missing := 0
	for _, order := range orders {
		ok, err := j.ledger.HasEntry(ctx, order.ID, enums.WalletSourceRefund)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("check refund entry for %s: %w", order.Code(), err))
			continue
		}
		if ok {
			continue
		}
		missing++
		logCtx := j.logg.WithOrderID(ctx, order.ID.String())
		logCtx = j.logg.WithField(logCtx, "refund_amount", order.RefundAmount)
		j.logg.Warn(logCtx, "refunded order has no wallet refund entry")
	}
	j.record(findingMissingRefundEntry, missing)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"since":    since,
		"checked":  len(orders),
		"findings": missing,
	})
	j.logg.Info(logCtx, "refund ledger audit complete")
	return errs
}

func (j *settlementAuditJob) record(kind string, count int) {
	if j.metrics == nil {
		return
	}
	j.metrics.AddAuditFindings(kind, count)
}
