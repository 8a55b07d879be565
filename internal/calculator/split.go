package calculator

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// maxPercentDecimals is the finest percentage accepted, 0.0001%.
const maxPercentDecimals = 4

var (
	hundred = decimal.NewFromInt(100)

	// PercentEpsilon is the tolerance on the sum of percentages. A sum must
	// be strictly closer than this to 100.
	PercentEpsilon = decimal.New(1, -2)
)

// Participant is one entry of a split request. Amount is read only for exact
// splits and Percentage only for percentage splits.
type Participant struct {
	UserID     string
	Amount     money.Money
	Percentage decimal.Decimal
}

// ComputeSplits divides total among participants according to splitType.
//
// The returned splits follow the input order and always sum to total exactly:
//   - Equal: uniform weights, leftover minor units to the earliest participants
//   - Exact: amounts are taken as given and must add up to total
//   - Percentage: percentages must sum to 100 within PercentEpsilon and are
//     used as allocation weights
//
// ComputeSplits has no side effects; IDs and timestamps are left for the caller.
func ComputeSplits(total money.Money, splitType models.SplitType, participants []Participant) ([]models.ExpenseSplit, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	var (
		amounts []money.Money
		err     error
	)
	switch splitType {
	case models.SplitEqual:
		amounts, err = total.Allocate(money.Uniform(len(participants))...)
	case models.SplitExact:
		amounts, err = exactAmounts(total, participants)
	case models.SplitPercentage:
		amounts, err = percentageAmounts(total, participants)
	default:
		return nil, fmt.Errorf("unsupported split type %d", int(splitType))
	}
	if err != nil {
		return nil, err
	}

	splits := make([]models.ExpenseSplit, len(participants))
	for i, p := range participants {
		splits[i] = models.ExpenseSplit{
			UserID:    p.UserID,
			Amount:    amounts[i],
			SplitType: splitType,
		}
		if splitType == models.SplitPercentage {
			splits[i].Percentage = decimal.NewNullDecimal(p.Percentage)
		}
	}
	return splits, nil
}

func validateParticipants(participants []Participant) error {
	if len(participants) == 0 {
		return &InvalidParticipantsError{Reason: "at least one participant is required"}
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		id := strings.TrimSpace(p.UserID)
		if id == "" {
			return &InvalidParticipantsError{Reason: "participant id is empty"}
		}
		if seen[id] {
			return &InvalidParticipantsError{UserID: id, Reason: "duplicate participant"}
		}
		seen[id] = true
	}
	return nil
}

func exactAmounts(total money.Money, participants []Participant) ([]money.Money, error) {
	amounts := make([]money.Money, len(participants))
	sum := money.Zero(total.Currency)
	for i, p := range participants {
		if !p.Amount.SameCurrency(total) {
			return nil, fmt.Errorf("%w: split for %s is in %q, expense is in %q",
				ErrCurrencyMismatch, p.UserID, p.Amount.Currency, total.Currency)
		}
		if p.Amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: split for %s is negative", money.ErrInvalidAmount, p.UserID)
		}
		amounts[i] = p.Amount
		var err error
		if sum, err = sum.CheckedAdd(p.Amount); err != nil {
			return nil, fmt.Errorf("exact splits: %w", err)
		}
	}
	if sum.Cmp(total) != 0 {
		return nil, &SplitMismatchError{Total: total, Sum: sum}
	}
	return amounts, nil
}

func percentageAmounts(total money.Money, participants []Participant) ([]money.Money, error) {
	weights := make([]*big.Rat, len(participants))
	sum := decimal.Zero
	for i, p := range participants {
		pct := p.Percentage
		if pct.IsNegative() {
			return nil, &InvalidPercentageError{Reason: fmt.Sprintf("%s for %s is negative", pct, p.UserID)}
		}
		if pct.GreaterThan(hundred) {
			return nil, &InvalidPercentageError{Reason: fmt.Sprintf("%s for %s exceeds 100", pct, p.UserID)}
		}
		scaled := pct.Shift(maxPercentDecimals)
		if !scaled.Equal(scaled.Truncate(0)) {
			return nil, &InvalidPercentageError{
				Reason: fmt.Sprintf("%s for %s has more than %d decimal places", pct, p.UserID, maxPercentDecimals),
			}
		}
		weights[i] = pct.Rat()
		sum = sum.Add(pct)
	}
	if sum.Sub(hundred).Abs().GreaterThanOrEqual(PercentEpsilon) {
		return nil, &InvalidPercentageError{Sum: sum}
	}
	return total.Allocate(weights...)
}
