package valueobject

import (
	"fmt"

	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

const (
	// ServiceFeeBPS - комиссия арбитра в базисных пунктах (1%).
	ServiceFeeBPS  = 100
	bpsDenominator = 10_000
)

// Amount - сумма в минимальных единицах стейблкоина (для USDC - 6 знаков).
type Amount int64

func NewAmount(units int64) (Amount, error) {
	if units <= 0 {
		return 0, apperror.New(apperror.ErrCodeInvalidInput, "сумма должна быть положительной")
	}
	return Amount(units), nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}

func (a Amount) String() string {
	return fmt.Sprintf("%d", int64(a))
}

// FeeSplit делит сумму между победителем спора и арбитром.
type FeeSplit struct {
	Fee    Amount
	Payout Amount
}

// SplitServiceFee считает комиссию floor(amount * 1%) без переполнения int64.
// Fee + Payout всегда равно исходной сумме.
func SplitServiceFee(amount Amount) FeeSplit {
	units := int64(amount)
	fee := units/bpsDenominator*ServiceFeeBPS + (units%bpsDenominator)*ServiceFeeBPS/bpsDenominator
	return FeeSplit{
		Fee:    Amount(fee),
		Payout: Amount(units - fee),
	}
}
