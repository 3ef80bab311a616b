package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

func TestTransfer_Deltas(t *testing.T) {
	amount := valueobject.Amount(500)

	deposit := NewTransfer(nil, TransferKindDeposit, "", client, amount)
	assert.Equal(t, []BalanceDelta{{Address: client, Available: 500}}, deposit.Deltas())

	hold := NewTransfer(nil, TransferKindEscrowHold, client, client, amount)
	assert.Equal(t, []BalanceDelta{{Address: client, Available: -500, Escrowed: 500}}, hold.Deltas())

	release := NewTransfer(nil, TransferKindRelease, client, freelancer, amount)
	assert.Equal(t, []BalanceDelta{
		{Address: client, Escrowed: -500},
		{Address: freelancer, Available: 500},
	}, release.Deltas())
}

func TestMergeDeltas_SortedAndAggregated(t *testing.T) {
	g := gigInStatus(t, valueobject.GigStatusDisputed)
	transfers, err := g.Resolve(arbiter, arbiter, freelancer)
	require.NoError(t, err)

	deltas := MergeDeltas(transfers)
	require.Len(t, deltas, 3)

	assert.Equal(t, BalanceDelta{Address: client, Escrowed: -10_000_000}, deltas[0])
	assert.Equal(t, BalanceDelta{Address: freelancer, Available: 9_900_000}, deltas[1])
	assert.Equal(t, BalanceDelta{Address: arbiter, Available: 100_000}, deltas[2])
}

func TestBalance_Check(t *testing.T) {
	tests := []struct {
		name    string
		balance Balance
		delta   BalanceDelta
		want    error
	}{
		{"deposit", Balance{Available: 10}, BalanceDelta{Available: 5}, nil},
		{"spend all", Balance{Available: 10}, BalanceDelta{Available: -10, Escrowed: 10}, nil},
		{"insufficient", Balance{Available: 10}, BalanceDelta{Available: -11, Escrowed: 11}, apperror.ErrInsufficientBalance},
		{"available at max", Balance{Available: math.MaxInt64}, BalanceDelta{Available: 1}, apperror.ErrBalanceOverflow},
		{"available up to max", Balance{Available: math.MaxInt64 - 1}, BalanceDelta{Available: 1}, nil},
		{"escrow overflow", Balance{Available: 1, Escrowed: math.MaxInt64}, BalanceDelta{Available: -1, Escrowed: 1}, apperror.ErrBalanceOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.balance.Check(tt.delta)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Same(t, tt.want, err)
		})
	}
}

func TestBalance_CheckEscrowUnderflow(t *testing.T) {
	err := Balance{Escrowed: 5}.Check(BalanceDelta{Address: client, Escrowed: -6, Available: 6})
	require.Error(t, err)
	assert.False(t, apperror.IsLogical(err))
}
