package entity

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

type TransferKind string

const (
	TransferKindDeposit    TransferKind = "deposit"
	TransferKindEscrowHold TransferKind = "escrow_hold"
	TransferKindRelease    TransferKind = "release"
	TransferKindRefund     TransferKind = "refund"
	TransferKindServiceFee TransferKind = "service_fee"
)

// Transfer - неизменяемая запись о движении средств.
type Transfer struct {
	ID        uuid.UUID
	GigID     *int64
	Kind      TransferKind
	From      valueobject.Address
	To        valueobject.Address
	Amount    valueobject.Amount
	CreatedAt time.Time
}

func NewTransfer(gigID *int64, kind TransferKind, from, to valueobject.Address, amount valueobject.Amount) Transfer {
	return Transfer{
		ID:        uuid.New(),
		GigID:     gigID,
		Kind:      kind,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}

// BalanceDelta - изменение баланса одного адреса.
type BalanceDelta struct {
	Address   valueobject.Address
	Available int64
	Escrowed  int64
}

// Deltas раскладывает перевод на изменения балансов.
func (t Transfer) Deltas() []BalanceDelta {
	amount := t.Amount.Int64()
	switch t.Kind {
	case TransferKindDeposit:
		return []BalanceDelta{{Address: t.To, Available: amount}}
	case TransferKindEscrowHold:
		return []BalanceDelta{{Address: t.From, Available: -amount, Escrowed: amount}}
	default:
		return []BalanceDelta{
			{Address: t.From, Escrowed: -amount},
			{Address: t.To, Available: amount},
		}
	}
}

// MergeDeltas суммирует изменения по адресам и сортирует их по адресу,
// чтобы хранилища блокировали счета в одном порядке.
func MergeDeltas(transfers []Transfer) []BalanceDelta {
	byAddress := make(map[valueobject.Address]*BalanceDelta)
	order := make([]valueobject.Address, 0, len(transfers)*2)

	for _, t := range transfers {
		for _, d := range t.Deltas() {
			acc, ok := byAddress[d.Address]
			if !ok {
				acc = &BalanceDelta{Address: d.Address}
				byAddress[d.Address] = acc
				order = append(order, d.Address)
			}
			acc.Available += d.Available
			acc.Escrowed += d.Escrowed
		}
	}

	slices.Sort(order)
	result := make([]BalanceDelta, 0, len(order))
	for _, addr := range order {
		result = append(result, *byAddress[addr])
	}
	return result
}

// Balance - баланс адреса в минимальных единицах.
type Balance struct {
	Address   valueobject.Address
	Available int64
	Escrowed  int64
	UpdatedAt time.Time
}

// Check проверяет, что после изменения оба баланса останутся в [0, MaxInt64].
// Нехватка и переполнение доступного баланса - отказ по входным данным,
// отрицательный escrow означает рассогласование хранилища.
func (b Balance) Check(d BalanceDelta) error {
	if err := checkBound(b.Available, d.Available); err != nil {
		return err
	}
	if err := checkBound(b.Escrowed, d.Escrowed); err != nil {
		if d.Escrowed < 0 {
			return fmt.Errorf("balance: escrow underflow for %s", d.Address)
		}
		return err
	}
	return nil
}

func checkBound(current, delta int64) error {
	if delta > 0 && current > math.MaxInt64-delta {
		return apperror.ErrBalanceOverflow
	}
	if delta < 0 && current+delta < 0 {
		return apperror.ErrInsufficientBalance
	}
	return nil
}
