package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository reads the service catalog.
type Repository interface {
	ListActive(ctx context.Context) ([]*Service, error)
	Get(ctx context.Context, id int64) (*Service, error)
}

// GetActive resolves id to an active service or ErrServiceNotFound.
func GetActive(ctx context.Context, repo Repository, id int64) (*Service, error) {
	svc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// InMemoryRepository keeps services in a map. Used in development and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	services map[int64]*Service
	nextID   int64
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{services: make(map[int64]*Service)}
}

// Add stores svc, assigning an id when it has none, and returns the stored copy.
func (r *InMemoryRepository) Add(svc Service) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc.ID == 0 {
		r.nextID++
		svc.ID = r.nextID
	} else if svc.ID > r.nextID {
		r.nextID = svc.ID
	}
	now := time.Now().UTC()
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now
	r.services[svc.ID] = &svc
	out := svc
	return &out
}

func (r *InMemoryRepository) ListActive(ctx context.Context) ([]*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		if svc.IsActive {
			cp := *svc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}
