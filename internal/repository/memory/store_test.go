package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

var (
	client     = valueobject.MustParseAddress("0x1111111111111111111111111111111111111111")
	freelancer = valueobject.MustParseAddress("0x2222222222222222222222222222222222222222")
	arbiter    = valueobject.MustParseAddress("0x3333333333333333333333333333333333333333")
)

func fundedStore(t *testing.T, units int64) *Store {
	t.Helper()
	s := NewStore()
	_, err := s.Deposit(context.Background(), client, valueobject.Amount(units))
	require.NoError(t, err)
	return s
}

func createGig(t *testing.T, s *Store, description string, amount int64) *entity.Gig {
	t.Helper()
	g, hold, err := entity.NewGig(client, freelancer, description, amount)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), g, hold))
	return g
}

func TestStore_CreateAssignsSequentialIDs(t *testing.T) {
	s := fundedStore(t, 1_000)
	ctx := context.Background()

	first := createGig(t, s, "first", 100)
	second := createGig(t, s, "second", 200)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	balance, err := s.GetBalance(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance.Available)
	assert.Equal(t, int64(300), balance.Escrowed)

	transfers, err := s.ListTransfersByGig(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, entity.TransferKindEscrowHold, transfers[0].Kind)
}

func TestStore_CreateInsufficientBalance(t *testing.T) {
	s := fundedStore(t, 50)
	ctx := context.Background()

	g, hold, err := entity.NewGig(client, freelancer, "too expensive", 100)
	require.NoError(t, err)

	err = s.Create(ctx, g, hold)
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Номер не расходуется на отказ.
	assert.Equal(t, int64(1), createGig(t, s, "affordable", 50).ID)
}

func TestStore_FindByIDNotFound(t *testing.T) {
	s := NewStore()

	_, err := s.FindByID(context.Background(), 42)
	assert.True(t, apperror.IsNotFound(err))

	_, err = s.Update(context.Background(), 42, func(g *entity.Gig) ([]entity.Transfer, error) {
		return nil, nil
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_UpdateAppliesTransfers(t *testing.T) {
	s := fundedStore(t, 10_000_000)
	ctx := context.Background()
	g := createGig(t, s, "Fix landing page", 10_000_000)

	_, err := s.Update(ctx, g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
		return nil, g.Dispute(client)
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
		return g.Resolve(arbiter, arbiter, freelancer)
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusCompleted, updated.Status())

	expect := map[valueobject.Address][2]int64{
		client:     {0, 0},
		freelancer: {9_900_000, 0},
		arbiter:    {100_000, 0},
	}
	for addr, want := range expect {
		b, err := s.GetBalance(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, want[0], b.Available, addr.String())
		assert.Equal(t, want[1], b.Escrowed, addr.String())
	}

	transfers, err := s.ListTransfersByGig(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 3)
	assert.Equal(t, entity.TransferKindServiceFee, transfers[1].Kind)
	assert.Equal(t, entity.TransferKindRelease, transfers[2].Kind)
}

func TestStore_UpdateRejectedMutationLeavesStateUntouched(t *testing.T) {
	s := fundedStore(t, 1_000)
	ctx := context.Background()
	g := createGig(t, s, "work", 1_000)

	boom := errors.New("boom")
	_, err := s.Update(ctx, g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
		g.Accepted = true
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusPending, stored.Status())
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := fundedStore(t, 1_000)
	ctx := context.Background()
	g := createGig(t, s, "work", 1_000)

	found, err := s.FindByID(ctx, g.ID)
	require.NoError(t, err)
	found.Refunded = true

	again, err := s.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, again.Refunded)
}

func TestStore_ConcurrentAcceptAndRefund(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := fundedStore(t, 1_000)
		g := createGig(t, s, "race", 1_000)

		var (
			wg        sync.WaitGroup
			acceptErr error
			refundErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = s.Update(context.Background(), g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
				return nil, g.Accept(freelancer)
			})
		}()
		go func() {
			defer wg.Done()
			_, refundErr = s.Update(context.Background(), g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
				return g.Refund(client)
			})
		}()
		wg.Wait()

		require.True(t, (acceptErr == nil) != (refundErr == nil), "exactly one command must win")
		if acceptErr != nil {
			assert.True(t, apperror.IsInvalidState(acceptErr))
		} else {
			assert.True(t, apperror.IsInvalidState(refundErr))
		}

		stored, err := s.FindByID(context.Background(), g.ID)
		require.NoError(t, err)
		assert.False(t, stored.Completed && stored.Refunded)
	}
}

func TestStore_ListFilters(t *testing.T) {
	s := fundedStore(t, 100_000)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		createGig(t, s, "Design logo", 100)
	}
	g := createGig(t, s, "Fix Landing page", 100)
	_, err := s.Update(ctx, g.ID, func(g *entity.Gig) ([]entity.Transfer, error) {
		return nil, g.Accept(freelancer)
	})
	require.NoError(t, err)

	items, total, err := s.List(ctx, repository.GigFilter{Search: "landing", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, g.ID, items[0].ID)

	// Поиск по номеру: "1" встречается в 1, 10, 11, 12, 13.
	_, total, err = s.List(ctx, repository.GigFilter{Search: "1", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	items, total, err = s.List(ctx, repository.GigFilter{Status: valueobject.GigStatusInProgress, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, g.ID, items[0].ID)

	items, total, err = s.List(ctx, repository.GigFilter{
		Address: freelancer,
		Role:    repository.ParticipantClient,
		Limit:   20,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	items, total, err = s.List(ctx, repository.GigFilter{
		Address: client,
		Role:    repository.ParticipantAny,
		Limit:   5,
		Offset:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	require.Len(t, items, 3)
	assert.Equal(t, int64(11), items[0].ID)
}

func TestStore_ListTransfersByAddressNewestFirst(t *testing.T) {
	s := fundedStore(t, 1_000)
	ctx := context.Background()
	createGig(t, s, "one", 100)
	createGig(t, s, "two", 200)

	transfers, err := s.ListTransfersByAddress(ctx, client, 10, 0)
	require.NoError(t, err)
	require.Len(t, transfers, 3)
	assert.Equal(t, valueobject.Amount(200), transfers[0].Amount)
	assert.Equal(t, entity.TransferKindDeposit, transfers[2].Kind)

	transfers, err = s.ListTransfersByAddress(ctx, client, 1, 1)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, valueobject.Amount(100), transfers[0].Amount)

	transfers, err = s.ListTransfersByAddress(ctx, freelancer, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestStore_DepositRejectsOverflow(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Deposit(ctx, client, valueobject.Amount(math.MaxInt64))
	require.NoError(t, err)

	_, err = s.Deposit(ctx, client, 10)
	assert.Same(t, apperror.ErrBalanceOverflow, err)
	assert.True(t, apperror.IsInvalidInput(err))

	balance, err := s.GetBalance(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance.Available)

	transfers, err := s.ListTransfersByAddress(ctx, client, 10, 0)
	require.NoError(t, err)
	assert.Len(t, transfers, 1)
}

func TestStore_CreateRejectsEscrowOverflow(t *testing.T) {
	s := fundedStore(t, math.MaxInt64)
	ctx := context.Background()
	createGig(t, s, "everything", math.MaxInt64)

	_, err := s.Deposit(ctx, client, 10)
	require.NoError(t, err)

	g, hold, err := entity.NewGig(client, freelancer, "one more", 10)
	require.NoError(t, err)
	err = s.Create(ctx, g, hold)
	assert.Same(t, apperror.ErrBalanceOverflow, err)

	balance, err := s.GetBalance(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Available)
	assert.Equal(t, int64(math.MaxInt64), balance.Escrowed)

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}
