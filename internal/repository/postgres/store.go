package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/iapdemo/internal/repository"
)

// FinishedTransactionStore keeps finished transaction ids in the finished_transactions table.
type FinishedTransactionStore struct {
	pool *pgxpool.Pool
}

func NewFinishedTransactionStore(pool *pgxpool.Pool) *FinishedTransactionStore {
	return &FinishedTransactionStore{
		pool: pool,
	}
}

// MarkFinished inserts the id; the primary key turns a repeated insert into a no-op,
// so exactly one caller sees a row affected.
func (s *FinishedTransactionStore) MarkFinished(ctx context.Context, transactionID string) (bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return false, repository.ErrEmptyTransactionID
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO finished_transactions (transaction_id)
		 VALUES ($1)
		 ON CONFLICT (transaction_id) DO NOTHING`,
		transactionID)
	if err != nil {
		return false, fmt.Errorf("insert finished transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *FinishedTransactionStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
