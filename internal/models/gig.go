package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
)

// Gig - сохранённая запись сделки. Status вычисляется при каждой выдаче.
type Gig struct {
	ID          int64     `db:"id" json:"id"`
	Client      string    `db:"client" json:"client"`
	Freelancer  string    `db:"freelancer" json:"freelancer"`
	Amount      int64     `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	Accepted    bool      `db:"accepted" json:"accepted"`
	Disputed    bool      `db:"disputed" json:"disputed"`
	Completed   bool      `db:"completed" json:"completed"`
	Refunded    bool      `db:"refunded" json:"refunded"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewGigRecord собирает запись из доменной сделки.
func NewGigRecord(g *entity.Gig) Gig {
	return Gig{
		ID:          g.ID,
		Client:      g.Client.String(),
		Freelancer:  g.Freelancer.String(),
		Amount:      g.Amount.Int64(),
		Description: g.Description,
		Accepted:    g.Accepted,
		Disputed:    g.Disputed,
		Completed:   g.Completed,
		Refunded:    g.Refunded,
		Status:      string(g.Status()),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// Entity восстанавливает доменную сделку. Адреса в базе уже в checksum-форме.
func (r Gig) Entity() *entity.Gig {
	return &entity.Gig{
		ID:          r.ID,
		Client:      valueobject.Address(r.Client),
		Freelancer:  valueobject.Address(r.Freelancer),
		Amount:      valueobject.Amount(r.Amount),
		Description: r.Description,
		Accepted:    r.Accepted,
		Disputed:    r.Disputed,
		Completed:   r.Completed,
		Refunded:    r.Refunded,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Account - баланс адреса.
type Account struct {
	Address   string    `db:"address" json:"address"`
	Available int64     `db:"available" json:"available"`
	Escrowed  int64     `db:"escrowed" json:"escrowed"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func NewAccountRecord(b *entity.Balance) Account {
	return Account{
		Address:   b.Address.String(),
		Available: b.Available,
		Escrowed:  b.Escrowed,
		UpdatedAt: b.UpdatedAt,
	}
}

func (r Account) Entity() *entity.Balance {
	return &entity.Balance{
		Address:   valueobject.Address(r.Address),
		Available: r.Available,
		Escrowed:  r.Escrowed,
		UpdatedAt: r.UpdatedAt,
	}
}

// Transfer - строка журнала переводов.
type Transfer struct {
	ID          uuid.UUID `db:"id" json:"id"`
	GigID       *int64    `db:"gig_id" json:"gig_id,omitempty"`
	Kind        string    `db:"kind" json:"kind"`
	FromAddress *string   `db:"from_address" json:"from,omitempty"`
	ToAddress   string    `db:"to_address" json:"to"`
	Amount      int64     `db:"amount" json:"amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func NewTransferRecord(t entity.Transfer) Transfer {
	rec := Transfer{
		ID:        t.ID,
		GigID:     t.GigID,
		Kind:      string(t.Kind),
		ToAddress: t.To.String(),
		Amount:    t.Amount.Int64(),
		CreatedAt: t.CreatedAt,
	}
	if !t.From.IsZero() {
		from := t.From.String()
		rec.FromAddress = &from
	}
	return rec
}

func (r Transfer) Entity() entity.Transfer {
	t := entity.Transfer{
		ID:        r.ID,
		GigID:     r.GigID,
		Kind:      entity.TransferKind(r.Kind),
		To:        valueobject.Address(r.ToAddress),
		Amount:    valueobject.Amount(r.Amount),
		CreatedAt: r.CreatedAt,
	}
	if r.FromAddress != nil {
		t.From = valueobject.Address(*r.FromAddress)
	}
	return t
}

// NewTransferRecords конвертирует список переводов для выдачи.
func NewTransferRecords(transfers []entity.Transfer) []Transfer {
	out := make([]Transfer, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, NewTransferRecord(t))
	}
	return out
}
