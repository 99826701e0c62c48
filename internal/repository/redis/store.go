package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shestoi/iapdemo/internal/repository"
)

// FinishedTransactionStore keeps finished transaction ids as Redis keys.
// SETNX makes the claim atomic across processes sharing the same Redis.
type FinishedTransactionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewFinishedTransactionStore creates the store. ttl == 0 keeps keys forever.
func NewFinishedTransactionStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *FinishedTransactionStore {
	return &FinishedTransactionStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func finishedKey(transactionID string) string {
	return fmt.Sprintf("finished_tx:%s", transactionID)
}

func (s *FinishedTransactionStore) MarkFinished(ctx context.Context, transactionID string) (bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return false, repository.ErrEmptyTransactionID
	}

	first, err := s.client.SetNX(ctx, finishedKey(transactionID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		s.logger.Error("failed to mark transaction finished in redis",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
		)
		return false, fmt.Errorf("mark transaction finished: %w", err)
	}

	if !first {
		s.logger.Debug("transaction already finished",
			zap.String("transaction_id", transactionID),
		)
	}
	return first, nil
}

func (s *FinishedTransactionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
