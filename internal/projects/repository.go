package projects

import (
	"context"
	"sort"
	"strings"
	"sync"

	"request-guard/middleware/guard/domain"
)

var ErrNotFound = domain.NewError(domain.KindNotFound, "project not found")

type Filter struct {
	TeamID string
	Status Status
	Search string
	Limit  int
	Offset int
}

// Repository é o backend de dados. A implementação real é externa; aqui
// fica só a versão em memória.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Project, error)
	Get(ctx context.Context, id string) (Project, error)
	Insert(ctx context.Context, p Project) error
	Update(ctx context.Context, p Project) error
	Delete(ctx context.Context, id string) error
	FindByName(ctx context.Context, teamID, name string) ([]Project, error)
}

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Project)}
}

// List devolve do mais novo para o mais antigo. Limit <= 0 significa sem limite.
func (m *MemoryRepository) List(_ context.Context, f Filter) ([]Project, error) {
	search := strings.ToLower(f.Search)

	m.mu.RLock()
	out := make([]Project, 0, len(m.items))
	for _, p := range m.items {
		if f.TeamID != "" && p.TeamID != f.TeamID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Project{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(p Project, lowerSearch string) bool {
	if strings.Contains(strings.ToLower(p.Name), lowerSearch) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), lowerSearch)
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryRepository) Insert(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = p
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	m.items[p.ID] = p
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryRepository) FindByName(_ context.Context, teamID, name string) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Project
	for _, p := range m.items {
		if p.TeamID == teamID && p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}
