package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

const MaxDescriptionLength = 2000

// Command - команда жизненного цикла сделки.
type Command string

const (
	CommandCreate  Command = "create"
	CommandAccept  Command = "accept"
	CommandRelease Command = "release"
	CommandRefund  Command = "refund"
	CommandDispute Command = "dispute"
	CommandResolve Command = "resolve"
)

// AllowedFrom сообщает, допускает ли статус выполнение команды.
func (c Command) AllowedFrom(status valueobject.GigStatus) bool {
	transitions := map[Command][]valueobject.GigStatus{
		CommandAccept:  {valueobject.GigStatusPending},
		CommandRefund:  {valueobject.GigStatusPending},
		CommandRelease: {valueobject.GigStatusPending, valueobject.GigStatusInProgress},
		CommandDispute: {valueobject.GigStatusPending, valueobject.GigStatusInProgress},
		CommandResolve: {valueobject.GigStatusDisputed},
	}

	for _, s := range transitions[c] {
		if s == status {
			return true
		}
	}
	return false
}

// Gig - одна escrow-сделка между клиентом и фрилансером.
type Gig struct {
	ID          int64
	Client      valueobject.Address
	Freelancer  valueobject.Address
	Amount      valueobject.Amount
	Description string
	Accepted    bool
	Disputed    bool
	Completed   bool
	Refunded    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewGig проверяет входные данные и возвращает новую сделку вместе с переводом,
// блокирующим сумму на escrow клиента. ID назначает хранилище.
func NewGig(client, freelancer valueobject.Address, description string, amount int64) (*Gig, Transfer, error) {
	if client.IsZero() || freelancer.IsZero() {
		return nil, Transfer{}, apperror.New(apperror.ErrCodeInvalidInput, "адреса клиента и фрилансера обязательны")
	}
	if client.Equal(freelancer) {
		return nil, Transfer{}, apperror.New(apperror.ErrCodeInvalidInput, "фрилансер должен отличаться от клиента")
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, Transfer{}, apperror.New(apperror.ErrCodeInvalidInput, "описание сделки обязательно")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, Transfer{}, apperror.New(apperror.ErrCodeInvalidInput, "описание сделки слишком длинное")
	}

	value, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, Transfer{}, err
	}

	now := time.Now()
	gig := &Gig{
		Client:      client,
		Freelancer:  freelancer,
		Amount:      value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return gig, NewTransfer(nil, TransferKindEscrowHold, client, client, value), nil
}

// Status выводится из флагов и нигде не хранится отдельно в домене.
func (g *Gig) Status() valueobject.GigStatus {
	return valueobject.DeriveGigStatus(g.Accepted, g.Disputed, g.Completed, g.Refunded)
}

func (g *Gig) IsParticipant(addr valueobject.Address) bool {
	return g.Client.Equal(addr) || g.Freelancer.Equal(addr)
}

// Accept фиксирует согласие фрилансера взяться за работу.
func (g *Gig) Accept(actor valueobject.Address) error {
	if !g.Freelancer.Equal(actor) {
		return apperror.New(apperror.ErrCodeUnauthorizedActor, "принять сделку может только её фрилансер")
	}
	if err := g.guard(CommandAccept); err != nil {
		return err
	}

	g.Accepted = true
	g.touch()
	return nil
}

// Release выплачивает всю сумму фрилансеру без комиссии.
func (g *Gig) Release(actor valueobject.Address) ([]Transfer, error) {
	if !g.Client.Equal(actor) {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedActor, "выплату может инициировать только клиент")
	}
	if err := g.guard(CommandRelease); err != nil {
		return nil, err
	}

	g.Completed = true
	g.touch()
	return []Transfer{g.transfer(TransferKindRelease, g.Freelancer, g.Amount)}, nil
}

// Refund возвращает всю сумму клиенту, пока фрилансер не принял сделку.
func (g *Gig) Refund(actor valueobject.Address) ([]Transfer, error) {
	if !g.Client.Equal(actor) {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedActor, "возврат может запросить только клиент")
	}
	if err := g.guard(CommandRefund); err != nil {
		return nil, err
	}

	g.Refunded = true
	g.touch()
	return []Transfer{g.transfer(TransferKindRefund, g.Client, g.Amount)}, nil
}

// Dispute замораживает средства до решения арбитра.
func (g *Gig) Dispute(actor valueobject.Address) error {
	if !g.IsParticipant(actor) {
		return apperror.New(apperror.ErrCodeUnauthorizedActor, "открыть спор может только участник сделки")
	}
	if err := g.guard(CommandDispute); err != nil {
		return err
	}

	g.Disputed = true
	g.touch()
	return nil
}

// Resolve закрывает спор: арбитр получает комиссию, остаток уходит победителю.
func (g *Gig) Resolve(actor, arbiter, winner valueobject.Address) ([]Transfer, error) {
	if arbiter.IsZero() || !arbiter.Equal(actor) {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedActor, "разрешить спор может только арбитр")
	}
	if err := g.guard(CommandResolve); err != nil {
		return nil, err
	}

	var kind TransferKind
	switch {
	case g.Freelancer.Equal(winner):
		kind = TransferKindRelease
	case g.Client.Equal(winner):
		kind = TransferKindRefund
	default:
		return nil, apperror.New(apperror.ErrCodeInvalidInput, "победителем может быть только клиент или фрилансер сделки")
	}

	split := valueobject.SplitServiceFee(g.Amount)
	transfers := make([]Transfer, 0, 2)
	if split.Fee > 0 {
		transfers = append(transfers, g.transfer(TransferKindServiceFee, arbiter, split.Fee))
	}

	if kind == TransferKindRelease {
		transfers = append(transfers, g.transfer(kind, g.Freelancer, split.Payout))
		g.Completed = true
	} else {
		transfers = append(transfers, g.transfer(kind, g.Client, split.Payout))
		g.Refunded = true
	}
	g.Disputed = false
	g.touch()
	return transfers, nil
}

// guard проверяет, что текущий статус допускает команду.
func (g *Gig) guard(cmd Command) error {
	if !cmd.AllowedFrom(g.Status()) {
		return apperror.New(apperror.ErrCodeInvalidState, "команда "+string(cmd)+" недоступна в статусе "+string(g.Status()))
	}
	return nil
}

// transfer списывает с escrow клиента в пользу получателя.
func (g *Gig) transfer(kind TransferKind, to valueobject.Address, amount valueobject.Amount) Transfer {
	id := g.ID
	return NewTransfer(&id, kind, g.Client, to, amount)
}

func (g *Gig) touch() {
	g.UpdatedAt = time.Now()
}
