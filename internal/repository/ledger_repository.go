package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
	"github.com/Derecoder4/Freelance-Fi/internal/repository/common"
)

var (
	transferColumnList = []string{"id", "gig_id", "kind", "from_address", "to_address", "amount", "created_at"}
	transferColumns    = strings.Join(transferColumnList, ", ")
)

type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetBalance возвращает баланс адреса; для незнакомого адреса - нулевой.
func (r *LedgerRepository) GetBalance(ctx context.Context, addr valueobject.Address) (*entity.Balance, error) {
	account, err := common.GetByField[models.Account](ctx, r.db, "accounts", "address", addr.String(), common.ErrNotFound)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &entity.Balance{Address: addr}, nil
		}
		return nil, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return account.Entity(), nil
}

// Deposit зачисляет внешнее пополнение на доступный баланс.
func (r *LedgerRepository) Deposit(ctx context.Context, addr valueobject.Address, amount valueobject.Amount) (*entity.Transfer, error) {
	transfer := entity.NewTransfer(nil, entity.TransferKindDeposit, "", addr, amount)
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := applyDeltas(ctx, tx, entity.MergeDeltas([]entity.Transfer{transfer})); err != nil {
			return err
		}
		return insertTransfers(ctx, tx, []entity.Transfer{transfer})
	})
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// ListTransfersByGig возвращает журнал сделки в порядке записи. Порядок задаёт
// seq: переводы одной команды пишутся с одинаковым created_at.
func (r *LedgerRepository) ListTransfersByGig(ctx context.Context, gigID int64) ([]entity.Transfer, error) {
	var rows []models.Transfer
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+transferColumns+` FROM transfers WHERE gig_id = $1 ORDER BY seq
	`, gigID)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list gig transfers %w", err)
	}
	return toTransfers(rows), nil
}

// ListTransfersByAddress возвращает переводы, где адрес отправитель или получатель.
func (r *LedgerRepository) ListTransfersByAddress(ctx context.Context, addr valueobject.Address, limit, offset int) ([]entity.Transfer, error) {
	var rows []models.Transfer
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+transferColumns+` FROM transfers
		WHERE from_address = $1 OR to_address = $1
		ORDER BY seq DESC LIMIT $2 OFFSET $3
	`, addr.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list address transfers %w", err)
	}
	return toTransfers(rows), nil
}

// applyDeltas меняет балансы в порядке адресов. Строка счёта блокируется FOR UPDATE
// и проверяется тем же правилом, что и в памяти, поэтому нехватка средств и
// переполнение возвращаются как отказ, а не как ошибка базы.
func applyDeltas(ctx context.Context, tx *sqlx.Tx, deltas []entity.BalanceDelta) error {
	for _, d := range deltas {
		if d.Available == 0 && d.Escrowed == 0 {
			continue
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO accounts (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`, d.Address.String())
		if err != nil {
			return fmt.Errorf("ledger repository: ensure account %w", err)
		}

		account, err := common.LockByField[models.Account](ctx, tx, "accounts", "address", d.Address.String(), common.ErrNotFound)
		if err != nil {
			return fmt.Errorf("ledger repository: lock account %w", err)
		}
		if err := account.Entity().Check(d); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE accounts
			SET available = available + $2, escrowed = escrowed + $3, updated_at = NOW()
			WHERE address = $1
		`, d.Address.String(), d.Available, d.Escrowed)
		if err != nil {
			return fmt.Errorf("ledger repository: update balance %w", err)
		}
	}
	return nil
}

func insertTransfers(ctx context.Context, tx *sqlx.Tx, transfers []entity.Transfer) error {
	inserter := common.NewBatchInserter(tx, "transfers", transferColumnList, 0)
	for _, t := range transfers {
		rec := models.NewTransferRecord(t)
		if err := inserter.Add(ctx, rec.ID, rec.GigID, rec.Kind, rec.FromAddress, rec.ToAddress, rec.Amount, rec.CreatedAt); err != nil {
			return fmt.Errorf("ledger repository: insert transfers %w", err)
		}
	}
	if err := inserter.Flush(ctx); err != nil {
		return fmt.Errorf("ledger repository: insert transfers %w", err)
	}
	return nil
}

func toTransfers(rows []models.Transfer) []entity.Transfer {
	out := make([]entity.Transfer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Entity())
	}
	return out
}
