package repository

import (
	"context"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
)

// Mutation выполняет переход над заблокированной сделкой и возвращает переводы,
// которые хранилище применит атомарно вместе с новым состоянием.
// Ошибка мутации отменяет всю операцию.
type Mutation func(gig *entity.Gig) ([]entity.Transfer, error)

// GigRepository - долговременное хранилище сделок, сериализующее команды по одной сделке.
type GigRepository interface {
	// Create назначает gig.ID, блокирует сумму на escrow клиента и сохраняет перевод.
	Create(ctx context.Context, gig *entity.Gig, hold entity.Transfer) error
	FindByID(ctx context.Context, id int64) (*entity.Gig, error)
	ListIDs(ctx context.Context) ([]int64, error)
	List(ctx context.Context, filter GigFilter) ([]*entity.Gig, int, error)
	// Update блокирует сделку, применяет мутацию и фиксирует результат целиком.
	Update(ctx context.Context, id int64, mutate Mutation) (*entity.Gig, error)
}

// LedgerRepository - балансы и журнал переводов.
type LedgerRepository interface {
	GetBalance(ctx context.Context, addr valueobject.Address) (*entity.Balance, error)
	Deposit(ctx context.Context, addr valueobject.Address, amount valueobject.Amount) (*entity.Transfer, error)
	ListTransfersByGig(ctx context.Context, gigID int64) ([]entity.Transfer, error)
	ListTransfersByAddress(ctx context.Context, addr valueobject.Address, limit, offset int) ([]entity.Transfer, error)
}

// Participant ограничивает выборку ролью адреса в сделке.
type Participant string

const (
	ParticipantAny        Participant = "any"
	ParticipantClient     Participant = "client"
	ParticipantFreelancer Participant = "freelancer"
)

type GigFilter struct {
	Status  valueobject.GigStatus
	Address valueobject.Address
	Role    Participant
	Search  string
	Limit   int
	Offset  int
}
