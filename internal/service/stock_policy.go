package service

import (
	"fmt"
	"math"
)

// StockPolicy decides the stock level after applying a delta.
type StockPolicy interface {
	Name() string
	Apply(current, delta int) (int, error)
}

// ClampNonNegative floors the result at zero. Over-decrements are silently absorbed.
type ClampNonNegative struct{}

func (ClampNonNegative) Name() string { return "clamp" }

func (ClampNonNegative) Apply(current, delta int) (int, error) {
	next, err := addStock(current, delta)
	if err != nil {
		return current, err
	}
	return max(0, next), nil
}

// RejectOnInsufficientStock refuses any delta that would take stock below zero.
type RejectOnInsufficientStock struct{}

func (RejectOnInsufficientStock) Name() string { return "reject" }

func (RejectOnInsufficientStock) Apply(current, delta int) (int, error) {
	next, err := addStock(current, delta)
	if err != nil {
		return current, err
	}
	if next < 0 {
		return current, fmt.Errorf("%w: have %d, delta %d", ErrInsufficientStock, current, delta)
	}
	return next, nil
}

// addStock adds delta to a non-negative stock level, refusing results that do
// not fit in an int.
func addStock(current, delta int) (int, error) {
	if delta > 0 && current > math.MaxInt-delta {
		return current, validationError("stock %d plus %d exceeds the largest stock level", current, delta)
	}
	return current + delta, nil
}

// StockPolicyByName resolves the STOCK_POLICY setting.
func StockPolicyByName(name string) (StockPolicy, error) {
	switch name {
	case "", "clamp":
		return ClampNonNegative{}, nil
	case "reject":
		return RejectOnInsufficientStock{}, nil
	default:
		return nil, fmt.Errorf("unknown stock policy %q", name)
	}
}
