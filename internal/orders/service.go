package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	dbtypes "github.com/laundryhub/laundry-backend/pkg/db/types"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/metrics"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

const bookingAttempts = 3

// Service is the order state machine plus the reads the three apps need.
type Service interface {
	Book(ctx context.Context, input BookInput) (*OrderView, error)
	Transition(ctx context.Context, input TransitionInput) (*OrderView, error)
	RequestReturnToHub(ctx context.Context, input ReturnInput) (*OrderView, error)
	ApproveReturn(ctx context.Context, input ReturnInput) (*OrderView, error)
	DeclineReturn(ctx context.Context, input ReturnInput) (*OrderView, error)
	ScheduleRedelivery(ctx context.Context, input ScheduleRedeliveryInput) (*OrderView, error)
	Suspend(ctx context.Context, input SuspendInput) (*OrderView, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderView, error)
	List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*OrderList, error)
	History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error)
	Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error
	CancellationQuote(ctx context.Context, orderID uuid.UUID, actor Actor) (*CancellationQuote, error)
	ComputeCancellationFee(ctx context.Context, order *models.Order) (int64, error)
	ComputeDeliveryFailureFee(ctx context.Context, reasons []enums.DeliveryFailureReason) (int64, error)
}

// ServiceParams groups the order service dependencies.
type ServiceParams struct {
	Repository          Repository
	Tx                  txRunner
	Outbox              outboxPublisher
	Fees                FeeSource
	Wallet              WalletCharger
	Partners            PartnerDirectory
	Metrics             transitionObserver
	Logger              *logger.Logger
	MaxDeliveryAttempts int
	Now                 func() time.Time
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	fees        FeeSource
	wallet      WalletCharger
	partners    PartnerDirectory
	metrics     transitionObserver
	logg        *logger.Logger
	maxAttempts int
	now         func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee source required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet charger required")
	}
	if params.Partners == nil {
		return nil, fmt.Errorf("partner directory required")
	}
	if params.MaxDeliveryAttempts < 1 {
		return nil, fmt.Errorf("max delivery attempts must be at least 1")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        params.Repository,
		tx:          params.Tx,
		outbox:      params.Outbox,
		fees:        params.Fees,
		wallet:      params.Wallet,
		partners:    params.Partners,
		metrics:     params.Metrics,
		logg:        params.Logger,
		maxAttempts: params.MaxDeliveryAttempts,
		now:         now,
	}, nil
}

func (s *service) Book(ctx context.Context, input BookInput) (*OrderView, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	var err error
	for attempt := 1; attempt <= bookingAttempts; attempt++ {
		order, err = s.book(ctx, input)
		if err == nil || !db.IsUniqueViolation(err, "") {
			break
		}
	}
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithField(logCtx, "order_number", order.OrderNumber)
		s.logg.Info(logCtx, "order booked")
	}
	return s.toView(order, Actor{ID: input.CustomerID, Role: enums.ActorRoleCustomer}), nil
}

// book leaves insert errors untyped so Book can spot a lost order-number
// race and retry it.
func (s *service) book(ctx context.Context, input BookInput) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		now := s.now()
		order = &models.Order{
			ID:                     uuid.New(),
			OrderNumber:            number,
			CustomerID:             input.CustomerID,
			Status:                 enums.OrderStatusPending,
			Version:                1,
			TotalAmount:            input.TotalAmount,
			PickupAddress:          strings.TrimSpace(input.PickupAddress),
			PickupSlot:             strings.TrimSpace(input.PickupSlot),
			DeliveryAddress:        strings.TrimSpace(input.DeliveryAddress),
			DeliverySlot:           strings.TrimSpace(input.DeliverySlot),
			ChargeKind:             enums.ChargeKindNone,
			DeliveryFailureReasons: []string{},
			ReturnState:            enums.ReturnStateNone,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := repo.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return s.emitCreated(ctx, tx, order)
	})
	return order, err
}

func (input BookInput) validate() error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if input.TotalAmount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	fields := []struct{ name, value string }{
		{"pickup_address", input.PickupAddress},
		{"pickup_slot", input.PickupSlot},
		{"delivery_address", input.DeliveryAddress},
		{"delivery_slot", input.DeliverySlot},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field.name)
		}
	}
	return nil
}

// Transition applies one actor action. The stored status and version are
// re-checked by the UPDATE itself; fee collection, history and events share
// the same transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*OrderView, error) {
	view, err := s.transition(ctx, input)
	s.observeTransition(input, err)
	if err != nil {
		if s.logg != nil && !isExpected(err) {
			logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
			logCtx = s.logg.WithField(logCtx, "action", input.Action)
			s.logg.Error(logCtx, "order transition failed", err)
		}
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   view.ID.String(),
			"action":     input.Action,
			"actor_role": input.Actor.Role,
			"status":     view.Status,
			"version":    view.Version,
		})
		s.logg.Info(logCtx, "order transition applied")
	}
	return view, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown action %q", input.Action)
	}
	if !input.Actor.Role.IsValid() || input.Actor.Role == enums.ActorRoleSystem {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Action == enums.OrderActionAcceptPickup || input.Action == enums.OrderActionStartDelivery {
		if input.Actor.Role == enums.ActorRolePartner {
			if err := s.partners.EnsureAssignable(ctx, input.Actor.ID); err != nil {
				return nil, err
			}
		}
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err)
		}
		if input.ExpectedVersion != nil && *input.ExpectedVersion != order.Version {
			return concurrentModification(order)
		}

		r, err := checkTransition(order, input.Action, input.Actor, s.maxAttempts)
		if err != nil {
			return err
		}
		if input.Action == enums.OrderActionAcceptPickup && heldBy(order, input.Actor) {
			view = s.toView(order, input.Actor)
			return nil
		}

		change, err := s.plan(ctx, order, r, input)
		if err != nil {
			return err
		}

		rows, err := repo.UpdateGuarded(ctx, order, change.updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if rows == 0 {
			return concurrentModification(order)
		}

		updated, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		var charge *wallet.ChargeResult
		if change.chargeAmount > 0 {
			charge, err = s.wallet.AssessCharge(ctx, tx, wallet.ChargeInput{
				Order:   updated,
				Kind:    change.chargeKind,
				Amount:  change.chargeAmount,
				Attempt: change.attempt,
				Actor:   input.Actor.wallet(),
			})
			if err != nil {
				return err
			}
		}

		if err := repo.AppendHistory(ctx, &models.OrderStatusEvent{
			ID:          uuid.New(),
			OrderID:     order.ID,
			FromStatus:  order.Status,
			ToStatus:    updated.Status,
			ReturnState: updated.ReturnState,
			Action:      input.Action,
			ActorRole:   input.Actor.Role,
			ActorID:     input.Actor.idPtr(),
			Note:        change.note,
			CreatedAt:   change.at,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		if err := s.emitTransition(ctx, tx, input, order.Status, updated, change); err != nil {
			return err
		}

		view = s.toView(updated, input.Actor)
		view.Charge = charge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// transitionPlan is the column set and side effects of one transition.
type transitionPlan struct {
	at           time.Time
	updates      map[string]any
	chargeKind   enums.ChargeKind
	chargeAmount int64
	attempt      int
	note         *string
}

func (s *service) plan(ctx context.Context, order *models.Order, r rule, input TransitionInput) (*transitionPlan, error) {
	now := s.now()
	p := &transitionPlan{at: now, updates: map[string]any{"updated_at": now}}
	target := r.target(order.Status)
	if target != order.Status {
		p.updates["status"] = target
	}
	payload := input.Payload
	if note := strings.TrimSpace(payload.Note); note != "" {
		p.note = &note
	}

	switch input.Action {
	case enums.OrderActionAcceptPickup:
		p.updates["partner_id"] = input.Actor.ID
	case enums.OrderActionReachLocation:
		p.updates["reached_location_at"] = now
	case enums.OrderActionPickUp:
		p.updates["picked_up_at"] = now
	case enums.OrderActionDropAtHub:
		p.updates["delivered_to_hub_at"] = now
		setHubCode(p, payload.HubCode)
	case enums.OrderActionApproveHub:
		p.updates["hub_approved_at"] = now
		setHubCode(p, payload.HubCode)
	case enums.OrderActionStartProcessing:
		p.updates["processing_at"] = now
	case enums.OrderActionStartIroning:
		p.updates["ironing_at"] = now
	case enums.OrderActionCompleteProcessing:
		p.updates["process_completed_at"] = now
	case enums.OrderActionStartDelivery:
		p.updates["partner_id"] = input.Actor.ID
		if order.ReturnState == enums.ReturnStateRedeliveryScheduled {
			p.updates["out_for_redelivery_at"] = now
		} else {
			p.updates["out_for_delivery_at"] = now
		}
	case enums.OrderActionReleaseDelivery:
		p.updates["partner_id"] = nil
	case enums.OrderActionDeliver:
		p.updates["delivered_at"] = now
	case enums.OrderActionFailDelivery:
		if err := s.planFailure(ctx, order, payload, p); err != nil {
			return nil, err
		}
	case enums.OrderActionCancel, enums.OrderActionAdminCancel:
		if err := s.planCancellation(ctx, order, input, p); err != nil {
			return nil, err
		}
	case enums.OrderActionRequestReturn:
		p.updates["return_state"] = enums.ReturnStateRequested
		p.updates["return_requested_at"] = now
	case enums.OrderActionApproveReturn:
		p.updates["return_state"] = enums.ReturnStateApproved
		p.updates["return_resolved_at"] = now
		p.updates["delivered_to_hub_at"] = now
		setHubCode(p, payload.HubCode)
	case enums.OrderActionDeclineReturn:
		p.updates["return_state"] = enums.ReturnStateDeclined
		p.updates["return_resolved_at"] = now
	case enums.OrderActionScheduleRedelivery:
		p.updates["return_state"] = enums.ReturnStateRedeliveryScheduled
		p.updates["redelivery_scheduled_at"] = now
		p.updates["partner_id"] = nil
		if payload.NewAddress != nil {
			address := strings.TrimSpace(*payload.NewAddress)
			if address == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "new delivery address must not be blank")
			}
			p.updates["delivery_address"] = address
		}
		if payload.NewSlot != nil {
			slot := strings.TrimSpace(*payload.NewSlot)
			if slot == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "new delivery slot must not be blank")
			}
			p.updates["delivery_slot"] = slot
		}
	case enums.OrderActionSuspend:
		reason := strings.TrimSpace(payload.Reason)
		if reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspension reason is required")
		}
		p.updates["return_state"] = enums.ReturnStateSuspended
		p.updates["suspension_reason"] = reason
		p.updates["suspended_at"] = now
		p.note = &reason
	}
	return p, nil
}

func setHubCode(p *transitionPlan, code string) {
	if code = strings.TrimSpace(code); code != "" {
		p.updates["hub_code"] = code
	}
}

// planFailure prices a failed delivery. The order keeps the latest attempt's
// reasons and fee; each attempt's charge is its own ledger entry.
func (s *service) planFailure(ctx context.Context, order *models.Order, payload TransitionPayload, p *transitionPlan) error {
	if len(payload.Reasons) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one delivery failure reason is required")
	}
	settings, err := s.fees.Current(ctx)
	if err != nil {
		return err
	}
	fee, err := fees.DeliveryFailureFee(payload.Reasons, settings)
	if err != nil {
		return err
	}

	reasons := make([]string, 0, len(payload.Reasons))
	for _, reason := range payload.Reasons {
		reasons = append(reasons, reason.String())
	}
	attempt := order.FailedDeliveryAttempts + 1

	p.updates["return_state"] = enums.ReturnStateNone
	p.updates["failed_delivery_attempts"] = attempt
	p.updates["delivery_failure_reasons"] = dbtypes.StringList(reasons)
	p.updates["delivery_failure_fee"] = fee
	p.updates["delivery_failed_at"] = p.at
	p.updates["charge_kind"] = enums.ChargeKindDeliveryFailure
	p.updates["charge_assessed_at"] = p.at
	if p.note != nil {
		p.updates["delivery_failure_note"] = *p.note
	}
	p.chargeKind = enums.ChargeKindDeliveryFailure
	p.chargeAmount = fee
	p.attempt = attempt
	return nil
}

// planCancellation prices a cancellation. An order already carrying a
// delivery failure charge keeps it and is not charged again.
func (s *service) planCancellation(ctx context.Context, order *models.Order, input TransitionInput, p *transitionPlan) error {
	role := input.Actor.Role
	p.updates["cancelled_at"] = p.at
	p.updates["cancelled_by"] = role
	if reason := strings.TrimSpace(input.Payload.Reason); reason != "" {
		p.updates["cancellation_reason"] = reason
		if p.note == nil {
			p.note = &reason
		}
	}
	if order.ChargeKind != enums.ChargeKindNone {
		return nil
	}

	fee, err := s.ComputeCancellationFee(ctx, order)
	if err != nil {
		return err
	}
	if fee == 0 {
		return nil
	}
	p.updates["cancellation_fee"] = fee
	p.updates["charge_kind"] = enums.ChargeKindCancellation
	p.updates["charge_assessed_at"] = p.at
	p.chargeKind = enums.ChargeKindCancellation
	p.chargeAmount = fee
	return nil
}

func (s *service) ComputeCancellationFee(ctx context.Context, order *models.Order) (int64, error) {
	if order == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.PartnerID == nil {
		return 0, nil
	}
	settings, err := s.fees.Current(ctx)
	if err != nil {
		return 0, err
	}
	return fees.CancellationFee(order.TotalAmount, settings.CancellationPercentage, true), nil
}

func (s *service) ComputeDeliveryFailureFee(ctx context.Context, reasons []enums.DeliveryFailureReason) (int64, error) {
	settings, err := s.fees.Current(ctx)
	if err != nil {
		return 0, err
	}
	return fees.DeliveryFailureFee(reasons, settings)
}

func (s *service) CancellationQuote(ctx context.Context, orderID uuid.UUID, actor Actor) (*CancellationQuote, error) {
	order, err := s.load(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	settings, err := s.fees.Current(ctx)
	if err != nil {
		return nil, err
	}
	_, checkErr := checkTransition(order, enums.OrderActionCancel, actor, s.maxAttempts)
	partnerAssigned := order.PartnerID != nil
	return &CancellationQuote{
		OrderID:         order.ID,
		Cancellable:     checkErr == nil,
		PartnerAssigned: partnerAssigned,
		Percentage:      settings.CancellationPercentage,
		Fee:             fees.CancellationFee(order.TotalAmount, settings.CancellationPercentage, partnerAssigned),
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderView, error) {
	order, err := s.load(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	return s.toView(order, actor), nil
}

// load reads an order and hides it from actors with no claim on it.
func (s *service) load(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !visibleTo(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func visibleTo(order *models.Order, actor Actor) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return true
	case enums.ActorRoleCustomer:
		return order.CustomerID == actor.ID
	case enums.ActorRolePartner:
		if heldBy(order, actor) {
			return true
		}
		return order.PartnerID == nil &&
			(order.Status == enums.OrderStatusPending || order.Status == enums.OrderStatusProcessCompleted)
	default:
		return false
	}
}

func (s *service) List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*OrderList, error) {
	switch actor.Role {
	case enums.ActorRoleCustomer:
		filters.CustomerID = &actor.ID
		filters.PartnerID = nil
		filters.PartnerQueue = false
	case enums.ActorRolePartner:
		filters.PartnerID = &actor.ID
		filters.CustomerID = nil
	case enums.ActorRoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list orders")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *filters.Status)
	}

	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	views := make([]OrderView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, *s.toView(&page.Items[i], actor))
	}
	return &OrderList{Items: views, NextCursor: page.NextCursor}, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.load(ctx, orderID, Actor{Role: enums.ActorRoleAdmin}); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, HistoryEntry{
			ID:          row.ID,
			Action:      row.Action,
			FromStatus:  row.FromStatus,
			ToStatus:    row.ToStatus,
			ReturnState: row.ReturnState,
			ActorRole:   row.ActorRole,
			ActorID:     row.ActorID,
			Note:        row.Note,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes an order that carries no open obligation: no refund is
// pending and no partner is working it.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	if actor.Role != enums.ActorRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can delete orders")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var deleted *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err)
		}
		if err := deletable(order); err != nil {
			return err
		}
		rows, err := repo.Delete(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if rows == 0 {
			return concurrentModification(order)
		}
		deleted = order
		return s.emitDeleted(ctx, tx, order, actor)
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, deleted.ID.String())
		logCtx = s.logg.WithField(logCtx, "status", deleted.Status)
		s.logg.Warn(logCtx, "order deleted")
	}
	return nil
}

func deletable(order *models.Order) error {
	if refundPending(order) {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s has a pending refund; settle it before deleting", order.Code())
	}
	if order.PartnerID != nil && !order.Status.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is assigned to a partner", order.Code())
	}
	return nil
}

func refundPending(order *models.Order) bool {
	if order.RefundProcessed {
		return false
	}
	switch order.Status {
	case enums.OrderStatusCancelled, enums.OrderStatusDeliveryFailed, enums.OrderStatusSuspended:
		return true
	default:
		return false
	}
}

func (s *service) observeTransition(input TransitionInput, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeApplied
	switch {
	case err == nil:
	case pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification):
		outcome = metrics.OutcomeConflict
	case isExpected(err):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveTransition(string(input.Action), string(input.Actor.Role), outcome)
}

// isExpected reports caller-side failures that need no error log.
func isExpected(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		return false
	default:
		return true
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func concurrentModification(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeConcurrentModification, "%s was modified concurrently", order.Code()).
		WithDetails(map[string]any{"version": order.Version})
}

func (s *service) toView(order *models.Order, actor Actor) *OrderView {
	view := &OrderView{
		ID:                     order.ID,
		OrderNumber:            order.OrderNumber,
		Code:                   order.Code(),
		CustomerID:             order.CustomerID,
		PartnerID:              order.PartnerID,
		HubCode:                order.HubCode,
		Status:                 order.Status,
		ReturnState:            order.ReturnState,
		Version:                order.Version,
		TotalAmount:            order.TotalAmount,
		PickupAddress:          order.PickupAddress,
		PickupSlot:             order.PickupSlot,
		DeliveryAddress:        order.DeliveryAddress,
		DeliverySlot:           order.DeliverySlot,
		ChargeKind:             order.ChargeKind,
		CancellationFee:        order.CancellationFee,
		CancellationReason:     order.CancellationReason,
		CancelledBy:            order.CancelledBy,
		DeliveryFailureFee:     order.DeliveryFailureFee,
		DeliveryFailureReasons: []string(order.DeliveryFailureReasons),
		DeliveryFailureNote:    order.DeliveryFailureNote,
		FailedDeliveryAttempts: order.FailedDeliveryAttempts,
		SuspensionReason:       order.SuspensionReason,
		Refund: RefundView{
			Processed:  order.RefundProcessed,
			Amount:     order.RefundAmount,
			Reason:     order.RefundReason,
			RefundedAt: order.RefundedAt,
		},
		Milestones:     milestones(order),
		AllowedActions: allowedActions(order, actor, s.maxAttempts),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if view.DeliveryFailureReasons == nil {
		view.DeliveryFailureReasons = []string{}
	}
	return view
}

func milestones(order *models.Order) map[string]time.Time {
	out := make(map[string]time.Time)
	for name, at := range map[string]*time.Time{
		"reached_location":     order.ReachedLocationAt,
		"picked_up":            order.PickedUpAt,
		"delivered_to_hub":     order.DeliveredToHubAt,
		"hub_approved":         order.HubApprovedAt,
		"processing":           order.ProcessingAt,
		"ironing":              order.IroningAt,
		"process_completed":    order.ProcessCompletedAt,
		"out_for_delivery":     order.OutForDeliveryAt,
		"out_for_redelivery":   order.OutForRedeliveryAt,
		"delivered":            order.DeliveredAt,
		"cancelled":            order.CancelledAt,
		"delivery_failed":      order.DeliveryFailedAt,
		"suspended":            order.SuspendedAt,
		"return_requested":     order.ReturnRequestedAt,
		"return_resolved":      order.ReturnResolvedAt,
		"redelivery_scheduled": order.RedeliveryScheduledAt,
	} {
		if at != nil {
			out[name] = at.UTC()
		}
	}
	return out
}
