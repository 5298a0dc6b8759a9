package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// Service appends and reads customer wallet transactions.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.WalletTransaction, error)
	HasEntry(ctx context.Context, orderID uuid.UUID, source enums.WalletEntrySource) (bool, error)
	ChargedTotal(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*EntryList, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a wallet transaction requires.
type RecordEntryInput struct {
	CustomerID     uuid.UUID
	OrderID        *uuid.UUID
	Type           enums.WalletTransactionType
	Action         enums.WalletAction
	Source         enums.WalletEntrySource
	Amount         int64
	Reason         string
	PreviousValue  int64
	NewValue       int64
	ActorRole      enums.ActorRole
	ActorID        *uuid.UUID
	IdempotencyKey string
}

// EntryList is one page of a customer's wallet history, newest first.
type EntryList = pagination.Page[models.WalletTransaction]

// ErrDuplicateEntry is returned when the idempotency key was already used.
var ErrDuplicateEntry = pkgerrors.New(pkgerrors.CodeConflict, "wallet transaction already recorded")

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (input RecordEntryInput) validate() error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid wallet transaction type %q", input.Type)
	}
	if !input.Action.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid wallet action %q", input.Action)
	}
	if !input.Source.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid wallet entry source %q", input.Source)
	}
	if input.Amount < 0 || (input.Amount == 0 && input.Source != enums.WalletSourceRefund) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.PreviousValue < 0 || input.NewValue < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "balances must not be negative")
	}
	if !input.ActorRole.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid actor role %q", input.ActorRole)
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	return nil
}

// Record appends an entry inside tx. A reused idempotency key yields
// ErrDuplicateEntry so callers can map it to their own outcome.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.WalletTransaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	entry := &models.WalletTransaction{
		ID:             uuid.New(),
		CustomerID:     input.CustomerID,
		OrderID:        input.OrderID,
		Type:           input.Type,
		Action:         input.Action,
		Source:         input.Source,
		Amount:         input.Amount,
		Reason:         strings.TrimSpace(input.Reason),
		PreviousValue:  input.PreviousValue,
		NewValue:       input.NewValue,
		ActorRole:      input.ActorRole,
		ActorID:        input.ActorID,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateEntry
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet transaction")
	}
	return entry, nil
}

func (s *service) HasEntry(ctx context.Context, orderID uuid.UUID, source enums.WalletEntrySource) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !source.IsValid() {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid wallet entry source %q", source)
	}
	exists, err := s.repo.ExistsForOrder(ctx, orderID, source)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wallet transactions")
	}
	return exists, nil
}

// ChargedTotal sums every fee collected on the order across attempts, the
// wallet-funded and the due-funded parts alike.
func (s *service) ChargedTotal(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	total, err := s.repo.WithTx(tx).SumForOrder(ctx, orderID, enums.ChargeEntrySources())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order charges")
	}
	return total, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error) {
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order wallet transactions")
	}
	return entries, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	entries, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	page := pagination.Trim(entries, params.Limit, cursorOf)
	return &page, nil
}
