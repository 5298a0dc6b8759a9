package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/internal/ledger"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/metrics"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
	"github.com/laundryhub/laundry-backend/pkg/outbox/payloads"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settlementObserver interface {
	ObserveSettlement(outcome string, refunded, dueCleared int64)
}

// Service owns every mutation of customer balances.
type Service interface {
	SettleRefund(ctx context.Context, input SettleRefundInput) (*SettlementResult, error)
	AssessCharge(ctx context.Context, tx *gorm.DB, input ChargeInput) (*ChargeResult, error)
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	ClearDues(ctx context.Context, input ClearDuesInput) (*AdjustResult, error)
	Summary(ctx context.Context, customerID uuid.UUID) (*Summary, error)
	Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ledger.EntryList, error)
}

// ServiceParams groups the wallet service dependencies.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Ledger     ledger.Service
	Outbox     outboxPublisher
	Metrics    settlementObserver
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  ledger.Service
	outbox  outboxPublisher
	metrics settlementObserver
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the wallet service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		ledger:  params.Ledger,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// RefundKey is the idempotency key of an order's refund entry.
func RefundKey(orderID uuid.UUID) string {
	return "refund:" + orderID.String()
}

// ChargeKey is the idempotency key of a fee collected on an order.
func ChargeKey(orderID uuid.UUID, kind enums.ChargeKind, attempt int) string {
	return fmt.Sprintf("charge:%s:%s:%d", orderID, kind, attempt)
}

const refundedAfterFailureReason = "refund settled after failed delivery"

// settleable lists the statuses a refund may close. Settling a failed delivery
// suspends the order.
func settleable(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusCancelled, enums.OrderStatusDeliveryFailed, enums.OrderStatusSuspended:
		return true
	default:
		return false
	}
}

func (s *service) SettleRefund(ctx context.Context, input SettleRefundInput) (*SettlementResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.RefundAmount != nil && *input.RefundAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must not be negative")
	}
	if !input.Actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing")
	}

	var result *SettlementResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		if order.RefundProcessed {
			return alreadySettled(order)
		}
		if !settleable(order.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "refund not allowed for %s orders", order.Status)
		}

		base := order.TotalAmount
		if input.RefundAmount != nil {
			if *input.RefundAmount > order.TotalAmount {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
			}
			base = *input.RefundAmount
		}

		customer, err := repo.FindCustomer(ctx, order.CustomerID)
		if err != nil {
			return notFoundOr(err, "customer not found", "load customer")
		}

		charge, err := s.ledger.ChargedTotal(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		settlement := ComputeSettlement(base, charge, customer.DueAmount)
		now := s.now()

		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = fmt.Sprintf("%s fee refund", order.ChargeKind.Label())
		}
		mark := RefundMark{
			Amount:    settlement.RefundToWallet,
			Reason:    reason,
			At:        now,
			ActorRole: input.Actor.Role,
			ActorID:   actorIDPtr(input.Actor),
		}
		status := order.Status
		if status == enums.OrderStatusDeliveryFailed {
			mark.SuspendReason = refundedAfterFailureReason
			status = enums.OrderStatusSuspended
		}
		rows, err := repo.MarkRefunded(ctx, order, mark)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
		}
		if rows == 0 {
			return s.refundConflict(ctx, repo, order.ID)
		}

		walletAfter := customer.WalletBalance + settlement.RefundToWallet
		result = &SettlementResult{
			OrderID:      order.ID,
			OrderCode:    order.Code(),
			CustomerID:   customer.ID,
			Settlement:   settlement,
			WalletBefore: customer.WalletBalance,
			WalletAfter:  walletAfter,
			RefundedAt:   now,
			OrderStatus:  status,
		}

		// Every settlement writes its refund entry, zero amounts included.
		orderID := order.ID
		refundEntry, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			CustomerID:     customer.ID,
			OrderID:        &orderID,
			Type:           enums.WalletTransactionBalance,
			Action:         enums.WalletActionIncrease,
			Source:         enums.WalletSourceRefund,
			Amount:         settlement.RefundToWallet,
			Reason:         fmt.Sprintf("Refund for order %s - %s (Charge: ₹%d)", order.Code(), order.ChargeKind.Label(), charge),
			PreviousValue:  customer.WalletBalance,
			NewValue:       walletAfter,
			ActorRole:      input.Actor.Role,
			ActorID:        actorIDPtr(input.Actor),
			IdempotencyKey: RefundKey(order.ID),
		})
		if err != nil {
			if errors.Is(err, ledger.ErrDuplicateEntry) {
				return alreadySettled(order)
			}
			return err
		}
		result.TransactionIDs = append(result.TransactionIDs, refundEntry.ID)

		if settlement.DueCleared > 0 {
			entry, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
				CustomerID:     customer.ID,
				OrderID:        &orderID,
				Type:           enums.WalletTransactionBalance,
				Action:         enums.WalletActionDecrease,
				Source:         enums.WalletSourceDueClearedRefund,
				Amount:         settlement.DueCleared,
				Reason:         fmt.Sprintf("Dues cleared from refund for order %s", order.Code()),
				PreviousValue:  settlement.DueBefore,
				NewValue:       settlement.DueAfter,
				ActorRole:      input.Actor.Role,
				ActorID:        actorIDPtr(input.Actor),
				IdempotencyKey: RefundKey(order.ID) + ":due",
			})
			if err != nil {
				if errors.Is(err, ledger.ErrDuplicateEntry) {
					return alreadySettled(order)
				}
				return err
			}
			result.TransactionIDs = append(result.TransactionIDs, entry.ID)
		}

		rows, err = repo.UpdateBalances(ctx, customer, Balances{
			WalletBalance: walletAfter,
			Points:        customer.Points,
			DueAmount:     settlement.DueAfter,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer balances")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "customer wallet changed during settlement")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.NewActorRef(input.Actor.ID, input.Actor.Role),
			OccurredAt:    now,
			Data: payloads.RefundSettledEvent{
				OrderID:       order.ID,
				CustomerID:    customer.ID,
				RefundAmount:  settlement.RefundToWallet,
				DueCleared:    settlement.DueCleared,
				WalletBalance: walletAfter,
				DueAmount:     settlement.DueAfter,
				OrderStatus:   status,
				SettledAt:     now,
			},
		})
	})

	s.observeSettlement(err, result)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       result.OrderID.String(),
			"customer_id":    result.CustomerID.String(),
			"refund_amount":  result.Settlement.RefundToWallet,
			"due_cleared":    result.Settlement.DueCleared,
			"wallet_balance": result.WalletAfter,
		})
		s.logg.Info(logCtx, "wallet.refund.settled")
	}
	return result, nil
}

// refundConflict tells a lost race against another settlement apart from a
// concurrent order edit.
func (s *service) refundConflict(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	current, err := repo.FindOrder(ctx, orderID)
	if err == nil && current.RefundProcessed {
		return alreadySettled(current)
	}
	return pkgerrors.New(pkgerrors.CodeConcurrentModification, "order was modified concurrently")
}

func (s *service) observeSettlement(err error, result *SettlementResult) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil && result != nil:
		s.metrics.ObserveSettlement(metrics.OutcomeApplied, result.Settlement.RefundToWallet, result.Settlement.DueCleared)
	case pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification):
		s.metrics.ObserveSettlement(metrics.OutcomeConflict, 0, 0)
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency), pkgerrors.IsCode(err, pkgerrors.CodeInternal):
		s.metrics.ObserveSettlement(metrics.OutcomeError, 0, 0)
	default:
		s.metrics.ObserveSettlement(metrics.OutcomeRejected, 0, 0)
	}
}

// AssessCharge collects a fee inside the caller's transaction. The wallet is
// debited first; any shortfall is added to the customer's dues.
func (s *service) AssessCharge(ctx context.Context, tx *gorm.DB, input ChargeInput) (*ChargeResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required for charge assessment")
	}
	if input.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	source, ok := sourceForCharge(input.Kind)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid charge kind %q", input.Kind)
	}
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge must not be negative")
	}

	result := &ChargeResult{Kind: input.Kind, Amount: input.Amount}
	order := input.Order
	repo := s.repo.WithTx(tx)

	customer, err := repo.FindCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, notFoundOr(err, "customer not found", "load customer")
	}
	result.WalletBalance = customer.WalletBalance
	result.DueAmount = customer.DueAmount
	if input.Amount == 0 {
		return result, nil
	}

	fromWallet, toDue := chargeSplit(input.Amount, customer.WalletBalance)
	next := Balances{
		WalletBalance: customer.WalletBalance - fromWallet,
		Points:        customer.Points,
		DueAmount:     customer.DueAmount + toDue,
	}
	key := ChargeKey(order.ID, input.Kind, input.Attempt)
	orderID := order.ID
	label := fmt.Sprintf("%s fee for order %s", input.Kind.Label(), order.Code())

	if fromWallet > 0 {
		reason := label
		if toDue > 0 {
			reason = fmt.Sprintf("%s fee (partial) for order %s", input.Kind.Label(), order.Code())
		}
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			CustomerID:     customer.ID,
			OrderID:        &orderID,
			Type:           enums.WalletTransactionBalance,
			Action:         enums.WalletActionDecrease,
			Source:         source,
			Amount:         fromWallet,
			Reason:         reason,
			PreviousValue:  customer.WalletBalance,
			NewValue:       next.WalletBalance,
			ActorRole:      input.Actor.Role,
			ActorID:        actorIDPtr(input.Actor),
			IdempotencyKey: key,
		}); err != nil {
			return nil, chargeRecordErr(err)
		}
	}
	if toDue > 0 {
		if _, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			CustomerID:     customer.ID,
			OrderID:        &orderID,
			Type:           enums.WalletTransactionBalance,
			Action:         enums.WalletActionIncrease,
			Source:         source,
			Amount:         toDue,
			Reason:         label + " added to dues",
			PreviousValue:  customer.DueAmount,
			NewValue:       next.DueAmount,
			ActorRole:      input.Actor.Role,
			ActorID:        actorIDPtr(input.Actor),
			IdempotencyKey: key + ":due",
		}); err != nil {
			return nil, chargeRecordErr(err)
		}
	}

	rows, err := repo.UpdateBalances(ctx, customer, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer balances")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "customer wallet changed during charge")
	}

	result.FromWallet = fromWallet
	result.AddedToDue = toDue
	result.WalletBalance = next.WalletBalance
	result.DueAmount = next.DueAmount

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventChargeAssessed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         outbox.NewActorRef(input.Actor.ID, input.Actor.Role),
		Data: payloads.ChargeAssessedEvent{
			OrderID:       order.ID,
			CustomerID:    customer.ID,
			Kind:          input.Kind,
			Amount:        input.Amount,
			FromWallet:    fromWallet,
			AddedToDue:    toDue,
			WalletBalance: next.WalletBalance,
			DueAmount:     next.DueAmount,
		},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func sourceForCharge(kind enums.ChargeKind) (enums.WalletEntrySource, bool) {
	switch kind {
	case enums.ChargeKindCancellation:
		return enums.WalletSourceCancellationFee, true
	case enums.ChargeKindDeliveryFailure:
		return enums.WalletSourceDeliveryFailureFee, true
	default:
		return "", false
	}
}

func chargeRecordErr(err error) error {
	if errors.Is(err, ledger.ErrDuplicateEntry) {
		return pkgerrors.New(pkgerrors.CodeConflict, "charge already assessed")
	}
	return err
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type must be balance or points")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action must be increase or decrease")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	var result *AdjustResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomer(ctx, input.CustomerID)
		if err != nil {
			return notFoundOr(err, "customer not found", "load customer")
		}

		next := Balances{WalletBalance: customer.WalletBalance, Points: customer.Points, DueAmount: customer.DueAmount}
		current := &next.WalletBalance
		if input.Type == enums.WalletTransactionPoints {
			current = &next.Points
		}
		previous := *current
		if input.Action == enums.WalletActionIncrease {
			*current += input.Amount
		} else {
			*current = max(0, *current-input.Amount)
		}
		moved := *current - previous
		if moved < 0 {
			moved = -moved
		}
		if moved == 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "customer %s is already zero", input.Type)
		}

		entry, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			CustomerID:     customer.ID,
			Type:           input.Type,
			Action:         input.Action,
			Source:         enums.WalletSourceAdminAdjustment,
			Amount:         moved,
			Reason:         input.Reason,
			PreviousValue:  previous,
			NewValue:       *current,
			ActorRole:      input.Actor.Role,
			ActorID:        actorIDPtr(input.Actor),
			IdempotencyKey: adjustmentKey("adjust", input.IdempotencyKey),
		})
		if err != nil {
			return adjustRecordErr(err)
		}

		if err := s.applyBalances(ctx, repo, customer, next); err != nil {
			return err
		}
		result = &AdjustResult{Transaction: entry, Wallet: summaryOf(customer)}
		return s.emitAdjusted(ctx, tx, input.Actor, entry)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ClearDues(ctx context.Context, input ClearDuesInput) (*AdjustResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.Amount != nil && *input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var result *AdjustResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomer(ctx, input.CustomerID)
		if err != nil {
			return notFoundOr(err, "customer not found", "load customer")
		}
		if customer.DueAmount == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer has no dues")
		}
		amount := customer.DueAmount
		if input.Amount != nil {
			if *input.Amount > customer.DueAmount {
				return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds due amount")
			}
			amount = *input.Amount
		}
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = "Dues cleared by admin"
		}

		next := Balances{
			WalletBalance: customer.WalletBalance,
			Points:        customer.Points,
			DueAmount:     customer.DueAmount - amount,
		}
		entry, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			CustomerID:     customer.ID,
			Type:           enums.WalletTransactionBalance,
			Action:         enums.WalletActionDecrease,
			Source:         enums.WalletSourceDueAdjustment,
			Amount:         amount,
			Reason:         reason,
			PreviousValue:  customer.DueAmount,
			NewValue:       next.DueAmount,
			ActorRole:      input.Actor.Role,
			ActorID:        actorIDPtr(input.Actor),
			IdempotencyKey: adjustmentKey("dues", input.IdempotencyKey),
		})
		if err != nil {
			return adjustRecordErr(err)
		}

		if err := s.applyBalances(ctx, repo, customer, next); err != nil {
			return err
		}
		result = &AdjustResult{Transaction: entry, Wallet: summaryOf(customer)}
		return s.emitAdjusted(ctx, tx, input.Actor, entry)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyBalances writes next and mirrors it onto customer on success.
func (s *service) applyBalances(ctx context.Context, repo Repository, customer *models.Customer, next Balances) error {
	rows, err := repo.UpdateBalances(ctx, customer, next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer balances")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "customer wallet changed concurrently")
	}
	customer.WalletBalance = next.WalletBalance
	customer.Points = next.Points
	customer.DueAmount = next.DueAmount
	customer.Version++
	return nil
}

func (s *service) emitAdjusted(ctx context.Context, tx *gorm.DB, actor Actor, entry *models.WalletTransaction) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWalletAdjusted,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   entry.CustomerID,
		Actor:         outbox.NewActorRef(actor.ID, actor.Role),
		Data: payloads.WalletAdjustedEvent{
			TransactionID: entry.ID,
			CustomerID:    entry.CustomerID,
			Type:          entry.Type,
			Action:        entry.Action,
			Source:        entry.Source,
			Amount:        entry.Amount,
			PreviousValue: entry.PreviousValue,
			NewValue:      entry.NewValue,
		},
	})
}

func adjustmentKey(prefix, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = uuid.NewString()
	}
	return prefix + ":" + clientKey
}

func adjustRecordErr(err error) error {
	if errors.Is(err, ledger.ErrDuplicateEntry) {
		return pkgerrors.New(pkgerrors.CodeIdempotency, "adjustment already applied for this idempotency key")
	}
	return err
}

func (s *service) Summary(ctx context.Context, customerID uuid.UUID) (*Summary, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := s.repo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, "customer not found", "load customer")
	}
	summary := summaryOf(customer)
	return &summary, nil
}

func (s *service) Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ledger.EntryList, error) {
	if _, err := s.Summary(ctx, customerID); err != nil {
		return nil, err
	}
	return s.ledger.ListForCustomer(ctx, customerID, params)
}

func alreadySettled(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeAlreadySettled, "refund already processed for %s", order.Code())
}

func notFoundOr(err error, notFound, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func actorIDPtr(actor Actor) *uuid.UUID {
	if actor.ID == uuid.Nil {
		return nil
	}
	id := actor.ID
	return &id
}
