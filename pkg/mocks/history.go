package mocks

import (
	"context"
	"sync"

	"github.com/user/docshot/pkg/ports"
)

// HistoryStore is an in-memory mock implementation of ports.HistoryStore.
type HistoryStore struct {
	mu   sync.Mutex
	Runs []ports.RunRecord

	SaveRunFunc func(ctx context.Context, run ports.RunRecord) error
}

func (m *HistoryStore) SaveRun(ctx context.Context, run ports.RunRecord) error {
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, run)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, run)
	return nil
}

func (m *HistoryStore) RecentRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ports.RunRecord
	for i := len(m.Runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Runs[i])
	}
	return out, nil
}

func (m *HistoryStore) TargetHistory(ctx context.Context, target string, limit int) ([]ports.ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ports.ResultRecord
	for i := len(m.Runs) - 1; i >= 0 && len(out) < limit; i-- {
		for _, r := range m.Runs[i].Results {
			if r.Target == target {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *HistoryStore) Close() error { return nil }

var _ ports.HistoryStore = (*HistoryStore)(nil)
