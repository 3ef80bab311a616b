package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

var (
	client     = valueobject.MustParseAddress("0x1111111111111111111111111111111111111111")
	freelancer = valueobject.MustParseAddress("0x2222222222222222222222222222222222222222")
	arbiter    = valueobject.MustParseAddress("0x3333333333333333333333333333333333333333")
	outsider   = valueobject.MustParseAddress("0x4444444444444444444444444444444444444444")
)

func newTestGig(t *testing.T, amount int64) *Gig {
	t.Helper()
	g, _, err := NewGig(client, freelancer, "Fix landing page", amount)
	require.NoError(t, err)
	g.ID = 1
	return g
}

func gigInStatus(t *testing.T, status valueobject.GigStatus) *Gig {
	t.Helper()
	g := newTestGig(t, 10_000_000)
	switch status {
	case valueobject.GigStatusInProgress:
		g.Accepted = true
	case valueobject.GigStatusDisputed:
		g.Disputed = true
	case valueobject.GigStatusCompleted:
		g.Completed = true
	case valueobject.GigStatusRefunded:
		g.Refunded = true
	}
	require.Equal(t, status, g.Status())
	return g
}

func TestNewGig(t *testing.T) {
	g, hold, err := NewGig(client, freelancer, "  Fix landing page  ", 150_000_000)
	require.NoError(t, err)

	assert.Equal(t, "Fix landing page", g.Description)
	assert.Equal(t, valueobject.GigStatusPending, g.Status())
	assert.Equal(t, TransferKindEscrowHold, hold.Kind)
	assert.Equal(t, client, hold.From)
	assert.Equal(t, valueobject.Amount(150_000_000), hold.Amount)
	assert.Nil(t, hold.GigID)
}

func TestNewGig_InvalidInput(t *testing.T) {
	cases := map[string]struct {
		freelancer  valueobject.Address
		description string
		amount      int64
	}{
		"same party":      {client, "work", 100},
		"missing address": {"", "work", 100},
		"blank":           {freelancer, "   ", 100},
		"too long":        {freelancer, strings.Repeat("a", MaxDescriptionLength+1), 100},
		"zero amount":     {freelancer, "work", 0},
		"negative amount": {freelancer, "work", -1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewGig(client, tc.freelancer, tc.description, tc.amount)
			require.Error(t, err)
			assert.True(t, apperror.IsInvalidInput(err))
		})
	}
}

func TestGig_TransitionTable(t *testing.T) {
	statuses := []valueobject.GigStatus{
		valueobject.GigStatusPending,
		valueobject.GigStatusInProgress,
		valueobject.GigStatusDisputed,
		valueobject.GigStatusCompleted,
		valueobject.GigStatusRefunded,
	}

	commands := map[Command]func(g *Gig) (valueobject.GigStatus, error){
		CommandAccept: func(g *Gig) (valueobject.GigStatus, error) {
			return valueobject.GigStatusInProgress, g.Accept(freelancer)
		},
		CommandRefund: func(g *Gig) (valueobject.GigStatus, error) {
			_, err := g.Refund(client)
			return valueobject.GigStatusRefunded, err
		},
		CommandRelease: func(g *Gig) (valueobject.GigStatus, error) {
			_, err := g.Release(client)
			return valueobject.GigStatusCompleted, err
		},
		CommandDispute: func(g *Gig) (valueobject.GigStatus, error) {
			return valueobject.GigStatusDisputed, g.Dispute(freelancer)
		},
		CommandResolve: func(g *Gig) (valueobject.GigStatus, error) {
			_, err := g.Resolve(arbiter, arbiter, freelancer)
			return valueobject.GigStatusCompleted, err
		},
	}

	for cmd, run := range commands {
		for _, status := range statuses {
			g := gigInStatus(t, status)
			want, err := run(g)

			if cmd.AllowedFrom(status) {
				require.NoError(t, err, "%s from %s", cmd, status)
				assert.Equal(t, want, g.Status(), "%s from %s", cmd, status)
			} else {
				require.Error(t, err, "%s from %s", cmd, status)
				assert.True(t, apperror.IsInvalidState(err), "%s from %s", cmd, status)
				assert.Equal(t, status, g.Status(), "%s from %s must not change state", cmd, status)
			}
			assert.False(t, g.Completed && g.Refunded)
		}
	}
}

func TestGig_AcceptTwice(t *testing.T) {
	g := newTestGig(t, 1_000)

	require.NoError(t, g.Accept(freelancer))
	err := g.Accept(freelancer)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestGig_AcceptByNonFreelancer(t *testing.T) {
	for _, status := range []valueobject.GigStatus{
		valueobject.GigStatusPending,
		valueobject.GigStatusInProgress,
		valueobject.GigStatusDisputed,
		valueobject.GigStatusCompleted,
		valueobject.GigStatusRefunded,
	} {
		for _, actor := range []valueobject.Address{client, arbiter, outsider} {
			err := gigInStatus(t, status).Accept(actor)
			assert.True(t, apperror.IsUnauthorizedActor(err), "%s by %s", status, actor)
		}
	}
}

func TestGig_ActorChecks(t *testing.T) {
	g := newTestGig(t, 1_000)

	_, err := g.Release(freelancer)
	assert.True(t, apperror.IsUnauthorizedActor(err))

	_, err = g.Refund(freelancer)
	assert.True(t, apperror.IsUnauthorizedActor(err))

	err = g.Dispute(outsider)
	assert.True(t, apperror.IsUnauthorizedActor(err))

	_, err = g.Resolve(client, arbiter, client)
	assert.True(t, apperror.IsUnauthorizedActor(err))

	// Проверка актора идёт раньше проверки статуса.
	_, err = g.Resolve(outsider, arbiter, freelancer)
	assert.True(t, apperror.IsUnauthorizedActor(err))

	assert.Equal(t, valueobject.GigStatusPending, g.Status())
}

func TestGig_ReleaseTransfersFullAmount(t *testing.T) {
	g := gigInStatus(t, valueobject.GigStatusInProgress)

	transfers, err := g.Release(client)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, TransferKindRelease, transfers[0].Kind)
	assert.Equal(t, client, transfers[0].From)
	assert.Equal(t, freelancer, transfers[0].To)
	assert.Equal(t, g.Amount, transfers[0].Amount)
	require.NotNil(t, transfers[0].GigID)
	assert.Equal(t, g.ID, *transfers[0].GigID)
}

func TestGig_ResolveForFreelancer(t *testing.T) {
	g := gigInStatus(t, valueobject.GigStatusDisputed)

	transfers, err := g.Resolve(arbiter, arbiter, freelancer)
	require.NoError(t, err)

	require.Len(t, transfers, 2)
	assert.Equal(t, TransferKindServiceFee, transfers[0].Kind)
	assert.Equal(t, arbiter, transfers[0].To)
	assert.Equal(t, valueobject.Amount(100_000), transfers[0].Amount)
	assert.Equal(t, TransferKindRelease, transfers[1].Kind)
	assert.Equal(t, freelancer, transfers[1].To)
	assert.Equal(t, valueobject.Amount(9_900_000), transfers[1].Amount)

	assert.True(t, g.Completed)
	assert.False(t, g.Disputed)
	assert.Equal(t, valueobject.GigStatusCompleted, g.Status())
}

func TestGig_ResolveForClient(t *testing.T) {
	g := gigInStatus(t, valueobject.GigStatusDisputed)

	transfers, err := g.Resolve(arbiter, arbiter, client)
	require.NoError(t, err)

	require.Len(t, transfers, 2)
	assert.Equal(t, TransferKindRefund, transfers[1].Kind)
	assert.Equal(t, client, transfers[1].To)
	assert.Equal(t, valueobject.Amount(9_900_000), transfers[1].Amount)
	assert.Equal(t, valueobject.GigStatusRefunded, g.Status())
}

func TestGig_ResolveSmallAmountSkipsFee(t *testing.T) {
	g := newTestGig(t, 50)
	require.NoError(t, g.Dispute(client))

	transfers, err := g.Resolve(arbiter, arbiter, freelancer)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, TransferKindRelease, transfers[0].Kind)
	assert.Equal(t, valueobject.Amount(50), transfers[0].Amount)
}

func TestGig_ResolveInvalidWinner(t *testing.T) {
	g := gigInStatus(t, valueobject.GigStatusDisputed)

	_, err := g.Resolve(arbiter, arbiter, outsider)
	assert.True(t, apperror.IsInvalidInput(err))
	assert.Equal(t, valueobject.GigStatusDisputed, g.Status())

	// Статус проверяется раньше победителя.
	_, err = gigInStatus(t, valueobject.GigStatusPending).Resolve(arbiter, arbiter, outsider)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestGig_TerminalIsImmutable(t *testing.T) {
	for _, status := range []valueobject.GigStatus{valueobject.GigStatusCompleted, valueobject.GigStatusRefunded} {
		g := gigInStatus(t, status)

		assert.True(t, apperror.IsInvalidState(g.Accept(freelancer)))
		_, err := g.Release(client)
		assert.True(t, apperror.IsInvalidState(err))
		_, err = g.Refund(client)
		assert.True(t, apperror.IsInvalidState(err))
		assert.True(t, apperror.IsInvalidState(g.Dispute(client)))
		_, err = g.Resolve(arbiter, arbiter, freelancer)
		assert.True(t, apperror.IsInvalidState(err))

		assert.Equal(t, status, g.Status())
	}
}
