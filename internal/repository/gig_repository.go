package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	domainRepo "github.com/Derecoder4/Freelance-Fi/internal/domain/repository"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
	"github.com/Derecoder4/Freelance-Fi/internal/repository/common"
)

type GigRepository struct {
	db *sqlx.DB
}

func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

// Create сначала списывает сумму в escrow клиента, затем вставляет сделку,
// поэтому отказ по балансу не расходует номер из последовательности.
func (r *GigRepository) Create(ctx context.Context, gig *entity.Gig, hold entity.Transfer) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := applyDeltas(ctx, tx, entity.MergeDeltas([]entity.Transfer{hold})); err != nil {
			return err
		}

		var id int64
		err := tx.GetContext(ctx, &id, `
			INSERT INTO gigs (client, freelancer, amount, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, gig.Client.String(), gig.Freelancer.String(), gig.Amount.Int64(), gig.Description, gig.CreatedAt, gig.UpdatedAt)
		if err != nil {
			return fmt.Errorf("gig repository: insert gig %w", err)
		}

		hold.GigID = &id
		if err := insertTransfers(ctx, tx, []entity.Transfer{hold}); err != nil {
			return err
		}

		gig.ID = id
		return nil
	})
}

// FindByID возвращает сделку или apperror.ErrGigNotFound.
func (r *GigRepository) FindByID(ctx context.Context, id int64) (*entity.Gig, error) {
	row, err := common.GetByID[models.Gig](ctx, r.db, "gigs", id, apperror.ErrGigNotFound)
	if err != nil {
		return nil, err
	}
	return row.Entity(), nil
}

// ListIDs возвращает все идентификаторы в порядке создания.
func (r *GigRepository) ListIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM gigs ORDER BY id`); err != nil {
		return nil, fmt.Errorf("gig repository: list ids %w", err)
	}
	return ids, nil
}

// List применяет фильтр дашборда: статус, роль адреса и поиск по описанию или номеру.
func (r *GigRepository) List(ctx context.Context, filter domainRepo.GigFilter) ([]*entity.Gig, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if !filter.Address.IsZero() {
		addr := arg(filter.Address.String())
		switch filter.Role {
		case domainRepo.ParticipantClient:
			conds = append(conds, "client = "+addr)
		case domainRepo.ParticipantFreelancer:
			conds = append(conds, "freelancer = "+addr)
		default:
			conds = append(conds, "(client = "+addr+" OR freelancer = "+addr+")")
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := arg("%" + escapeLike(search) + "%")
		conds = append(conds, "(description ILIKE "+pattern+" OR id::text LIKE "+pattern+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM gigs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("gig repository: count %w", err)
	}

	query := "SELECT * FROM gigs" + where + " ORDER BY id LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)
	var rows []models.Gig
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("gig repository: list %w", err)
	}

	gigs := make([]*entity.Gig, 0, len(rows))
	for _, row := range rows {
		gigs = append(gigs, row.Entity())
	}
	return gigs, total, nil
}

// Update блокирует строку сделки на время перехода: конкурирующая команда
// по тому же id дождётся коммита и увидит уже новое состояние.
func (r *GigRepository) Update(ctx context.Context, id int64, mutate domainRepo.Mutation) (*entity.Gig, error) {
	var result *entity.Gig
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		row, err := common.LockByField[models.Gig](ctx, tx, "gigs", "id", id, apperror.ErrGigNotFound)
		if err != nil {
			return err
		}

		gig := row.Entity()
		transfers, err := mutate(gig)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE gigs SET accepted = $2, disputed = $3, completed = $4, refunded = $5, updated_at = $6
			WHERE id = $1
		`, gig.ID, gig.Accepted, gig.Disputed, gig.Completed, gig.Refunded, gig.UpdatedAt)
		if err != nil {
			return fmt.Errorf("gig repository: update gig %w", err)
		}

		if err := applyDeltas(ctx, tx, entity.MergeDeltas(transfers)); err != nil {
			return err
		}
		if err := insertTransfers(ctx, tx, transfers); err != nil {
			return err
		}

		result = gig
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
