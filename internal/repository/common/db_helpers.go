package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DefaultBatchSize покрывает самую длинную команду: расчёт спора пишет
// не больше трёх переводов, так что журнал сделки уходит одним INSERT.
const DefaultBatchSize = 8

// GetByID читает одну строку таблицы по первичному ключу id.
// Работает и с *sqlx.DB, и внутри транзакции.
func GetByID[T any](ctx context.Context, q sqlx.QueryerContext, table string, id interface{}, notFoundErr error) (*T, error) {
	return GetByField[T](ctx, q, table, "id", id, notFoundErr)
}

// GetByField читает строку по значению столбца; отсутствие строки - notFoundErr.
func GetByField[T any](ctx context.Context, q sqlx.QueryerContext, table, field string, value interface{}, notFoundErr error) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", table, field)
	return getOne[T](ctx, q, query, value, notFoundErr)
}

// LockByField как GetByField, но держит строку FOR UPDATE до конца транзакции.
func LockByField[T any](ctx context.Context, tx *sqlx.Tx, table, field string, value interface{}, notFoundErr error) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 FOR UPDATE", table, field)
	return getOne[T](ctx, tx, query, value, notFoundErr)
}

func getOne[T any](ctx context.Context, q sqlx.QueryerContext, query string, value interface{}, notFoundErr error) (*T, error) {
	var row T
	if err := sqlx.GetContext(ctx, q, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("%s: %w", query, err)
	}
	return &row, nil
}

// BatchInserter копит строки и пишет их многострочным INSERT.
type BatchInserter struct {
	tx        sqlx.ExecerContext
	prefix    string
	columns   int
	batchSize int
	values    []interface{}
	rows      int
}

// NewBatchInserter готовит вставку в table по перечисленным столбцам.
// batchSize <= 0 означает DefaultBatchSize.
func NewBatchInserter(tx sqlx.ExecerContext, table string, columns []string, batchSize int) *BatchInserter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchInserter{
		tx:        tx,
		prefix:    "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES ",
		columns:   len(columns),
		batchSize: batchSize,
		values:    make([]interface{}, 0, batchSize*len(columns)),
	}
}

// Add ставит строку в очередь и сбрасывает пачку, когда она заполнена.
func (bi *BatchInserter) Add(ctx context.Context, row ...interface{}) error {
	if len(row) != bi.columns {
		return fmt.Errorf("batch insert: expected %d values, got %d", bi.columns, len(row))
	}

	bi.values = append(bi.values, row...)
	bi.rows++
	if bi.rows >= bi.batchSize {
		return bi.Flush(ctx)
	}
	return nil
}

// Flush пишет накопленное; пустая очередь - не ошибка.
func (bi *BatchInserter) Flush(ctx context.Context) error {
	if bi.rows == 0 {
		return nil
	}

	if _, err := bi.tx.ExecContext(ctx, bi.query(), bi.values...); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}

	bi.values = bi.values[:0]
	bi.rows = 0
	return nil
}

// query собирает "($1, $2), ($3, $4)" под текущую пачку.
func (bi *BatchInserter) query() string {
	var b strings.Builder
	b.WriteString(bi.prefix)
	n := 1
	for i := 0; i < bi.rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < bi.columns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// WithTransaction выполняет fn в одной транзакции: ошибка или паника
// откатывают всё, иначе коммит. Ошибку fn возвращает как есть, чтобы
// логические отказы не превращались в ошибки хранилища.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
