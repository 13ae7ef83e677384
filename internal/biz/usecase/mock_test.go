package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// Mock implementations

type mockBackend struct {
	mu       sync.Mutex
	replies  []string // consumed in order; the last one repeats
	err      error
	requests []repo.GenerateRequest
}

func (m *mockBackend) Generate(ctx context.Context, req repo.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

func (m *mockBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockImages struct {
	data []byte
	err  error
}

func (m *mockImages) FetchImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) ([]byte, error) {
	return m.data, m.err
}

var errBackendDown = errors.New("connection refused")
