package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shestoi/iapdemo/internal/repository"
)

// FinishedTransactionStore keeps finished transaction ids in process memory.
// Used for local runs and tests; the set is lost on restart.
type FinishedTransactionStore struct {
	mu       sync.Mutex
	finished map[string]time.Time
}

func NewFinishedTransactionStore() *FinishedTransactionStore {
	return &FinishedTransactionStore{
		finished: make(map[string]time.Time),
	}
}

func (s *FinishedTransactionStore) MarkFinished(ctx context.Context, transactionID string) (bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return false, repository.ErrEmptyTransactionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.finished[transactionID]; ok {
		return false, nil
	}
	s.finished[transactionID] = time.Now().UTC()
	return true, nil
}

// Ping always succeeds; it lets the health check treat every backend alike.
func (s *FinishedTransactionStore) Ping(ctx context.Context) error {
	return nil
}
