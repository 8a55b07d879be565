package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// errUnauthenticated is returned when a handler runs without an authenticated caller.
var errUnauthenticated = errors.New("authentication required")

// callerID returns the authenticated user ID from the context.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}

// invalidArgument wraps a request validation failure.
func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(ctx context.Context, op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := codeOf(err)
	if code == connect.CodeInternal {
		slog.ErrorContext(ctx, op+" failed", "error", err)
	}
	return connect.NewError(code, err)
}

func codeOf(err error) connect.Code {
	var (
		splitMismatch  *calculator.SplitMismatchError
		badPercentage  *calculator.InvalidPercentageError
		badParticipant *calculator.InvalidParticipantsError
		badSettlement  *calculator.InvalidSettlementError
		badExpense     *ledger.InvalidExpenseError
		locked         *ledger.ExpenseLockedError
		memberBalance  *ledger.MemberBalanceError
	)

	switch {
	case errors.As(err, &splitMismatch),
		errors.As(err, &badPercentage),
		errors.As(err, &badParticipant),
		errors.As(err, &badExpense),
		errors.Is(err, ledger.ErrInvalidGroup),
		errors.Is(err, calculator.ErrCurrencyMismatch),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrOverflow),
		errors.Is(err, money.ErrUnknownCurrency),
		errors.Is(err, money.ErrInvalidWeights):
		return connect.CodeInvalidArgument
	case errors.As(err, &badSettlement),
		errors.As(err, &locked),
		errors.As(err, &memberBalance),
		errors.Is(err, calculator.ErrUnbalanced):
		return connect.CodeFailedPrecondition
	case errors.Is(err, storage.ErrGroupNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, storage.ErrConcurrentModification):
		return connect.CodeAborted
	case errors.Is(err, ledger.ErrNotMember), errors.Is(err, ledger.ErrPermissionDenied):
		return connect.CodePermissionDenied
	case errors.Is(err, ledger.ErrAlreadyMember):
		return connect.CodeAlreadyExists
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	}
	return connect.CodeInternal
}
