package memory

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

// Store - хранилище сделок и балансов в памяти процесса.
// mu защищает все карты сразу; команды по одной сделке дополнительно
// сериализуются её собственным мьютексом, чтобы мутация видела последнее состояние.
type Store struct {
	mu        sync.RWMutex
	gigs      map[int64]*entity.Gig
	locks     map[int64]*sync.Mutex
	balances  map[valueobject.Address]*entity.Balance
	transfers []entity.Transfer
	nextID    int64
}

var (
	_ repository.GigRepository    = (*Store)(nil)
	_ repository.LedgerRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		gigs:     make(map[int64]*entity.Gig),
		locks:    make(map[int64]*sync.Mutex),
		balances: make(map[valueobject.Address]*entity.Balance),
	}
}

func (s *Store) Create(ctx context.Context, gig *entity.Gig, hold entity.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deltas := entity.MergeDeltas([]entity.Transfer{hold})
	if err := s.checkDeltas(deltas); err != nil {
		return err
	}

	s.nextID++
	id := s.nextID
	gig.ID = id
	hold.GigID = &id

	stored := *gig
	s.gigs[id] = &stored
	s.locks[id] = &sync.Mutex{}
	s.applyDeltas(deltas)
	s.transfers = append(s.transfers, hold)
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*entity.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.gigs[id]
	if !ok {
		return nil, apperror.ErrGigNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) ListIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedIDs(), nil
}

func (s *Store) List(ctx context.Context, filter repository.GigFilter) ([]*entity.Gig, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]*entity.Gig, 0)
	for _, id := range s.sortedIDs() {
		g := s.gigs[id]
		if !matchesFilter(g, filter, search) {
			continue
		}
		cp := *g
		matched = append(matched, &cp)
	}

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *Store) Update(ctx context.Context, id int64, mutate repository.Mutation) (*entity.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.ErrGigNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current := *s.gigs[id]
	s.mu.RUnlock()

	transfers, err := mutate(&current)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deltas := entity.MergeDeltas(transfers)
	if err := s.checkDeltas(deltas); err != nil {
		return nil, err
	}

	stored := current
	s.gigs[id] = &stored
	s.applyDeltas(deltas)
	s.transfers = append(s.transfers, transfers...)

	result := current
	return &result, nil
}

func (s *Store) GetBalance(ctx context.Context, addr valueobject.Address) (*entity.Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.balances[addr]; ok {
		cp := *b
		return &cp, nil
	}
	return &entity.Balance{Address: addr}, nil
}

func (s *Store) Deposit(ctx context.Context, addr valueobject.Address, amount valueobject.Amount) (*entity.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transfer := entity.NewTransfer(nil, entity.TransferKindDeposit, "", addr, amount)

	s.mu.Lock()
	defer s.mu.Unlock()

	deltas := transfer.Deltas()
	if err := s.checkDeltas(deltas); err != nil {
		return nil, err
	}
	s.applyDeltas(deltas)
	s.transfers = append(s.transfers, transfer)
	return &transfer, nil
}

func (s *Store) ListTransfersByGig(ctx context.Context, gigID int64) ([]entity.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Transfer, 0)
	for _, t := range s.transfers {
		if t.GigID != nil && *t.GigID == gigID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListTransfersByAddress отдаёт переводы от новых к старым.
func (s *Store) ListTransfersByAddress(ctx context.Context, addr valueobject.Address, limit, offset int) ([]entity.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Transfer, 0)
	skipped := 0
	for i := len(s.transfers) - 1; i >= 0; i-- {
		t := s.transfers[i]
		if !t.From.Equal(addr) && !t.To.Equal(addr) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// checkDeltas вызывается под s.mu и не меняет состояние.
func (s *Store) checkDeltas(deltas []entity.BalanceDelta) error {
	for _, d := range deltas {
		current := entity.Balance{Address: d.Address}
		if b, ok := s.balances[d.Address]; ok {
			current = *b
		}
		if err := current.Check(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyDeltas(deltas []entity.BalanceDelta) {
	now := time.Now()
	for _, d := range deltas {
		b, ok := s.balances[d.Address]
		if !ok {
			b = &entity.Balance{Address: d.Address}
			s.balances[d.Address] = b
		}
		b.Available += d.Available
		b.Escrowed += d.Escrowed
		b.UpdatedAt = now
	}
}

func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.gigs))
	for id := range s.gigs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func matchesFilter(g *entity.Gig, filter repository.GigFilter, search string) bool {
	if filter.Status != "" && g.Status() != filter.Status {
		return false
	}
	if !filter.Address.IsZero() {
		switch filter.Role {
		case repository.ParticipantClient:
			if !g.Client.Equal(filter.Address) {
				return false
			}
		case repository.ParticipantFreelancer:
			if !g.Freelancer.Equal(filter.Address) {
				return false
			}
		default:
			if !g.IsParticipant(filter.Address) {
				return false
			}
		}
	}
	if search != "" {
		return strings.Contains(strings.ToLower(g.Description), search) ||
			strings.Contains(strconv.FormatInt(g.ID, 10), search)
	}
	return true
}
