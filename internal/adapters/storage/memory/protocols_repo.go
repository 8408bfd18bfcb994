package memory

import (
	"context"
	"sort"
	"sync"

	"herd-reproduction/internal/domain/protocols"
)

// ProtocolsRepo guarda protocolos em memória (modo dev, sem banco).
type ProtocolsRepo struct {
	mu   sync.RWMutex
	byID map[string]protocols.Record
}

func NewProtocolsRepo(seed ...protocols.Record) *ProtocolsRepo {
	r := &ProtocolsRepo{byID: map[string]protocols.Record{}}
	for _, rec := range seed {
		r.byID[rec.ID] = rec
	}
	return r
}

func (r *ProtocolsRepo) Add(rec protocols.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = rec
}

func (r *ProtocolsRepo) GetByID(ctx context.Context, id, ownerID string) (protocols.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return protocols.Record{}, protocols.ErrNotFound
	}
	if ownerID != "" && rec.OwnerID != "" && rec.OwnerID != ownerID {
		return protocols.Record{}, protocols.ErrNotFound
	}
	return rec, nil
}

func (r *ProtocolsRepo) List(ctx context.Context, ownerID string) ([]protocols.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocols.Record, 0, len(r.byID))
	for _, rec := range r.byID {
		if ownerID != "" && rec.OwnerID != "" && rec.OwnerID != ownerID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
