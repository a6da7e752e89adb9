package storagemock

import (
	"context"
	"sort"
	"sync"
	"time"

	"pixoform/api/services/storage"
)

// StorageMock is a storage.Storage for handler and pipeline tests.
// Each method defers to its Mock func when set; otherwise it behaves like
// an in-memory table with an auto-incrementing id.
type StorageMock struct {
	InitMock        func(ctx context.Context) error
	SaveMock        func(ctx context.Context, sub *storage.Submission) (int64, error)
	ListMock        func(ctx context.Context) ([]storage.Submission, error)
	HealthCheckMock func(ctx context.Context) error

	mu     sync.Mutex
	nextID int64
	rows   []storage.Submission
	saves  int
}

func (m *StorageMock) Init(ctx context.Context) error {
	if m != nil && m.InitMock != nil {
		return m.InitMock(ctx)
	}
	return nil
}

func (m *StorageMock) Save(ctx context.Context, sub *storage.Submission) (int64, error) {
	m.mu.Lock()
	m.saves++
	m.mu.Unlock()

	if m.SaveMock != nil {
		return m.SaveMock(ctx, sub)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sub.ID = m.nextID
	sub.SubmissionDate = time.Now().UTC()
	m.rows = append(m.rows, *sub)
	return sub.ID, nil
}

func (m *StorageMock) List(ctx context.Context) ([]storage.Submission, error) {
	if m != nil && m.ListMock != nil {
		return m.ListMock(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Submission, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *StorageMock) HealthCheck(ctx context.Context) error {
	if m != nil && m.HealthCheckMock != nil {
		return m.HealthCheckMock(ctx)
	}
	return nil
}

// SaveCalls reports how many times Save was called, successful or not.
func (m *StorageMock) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
