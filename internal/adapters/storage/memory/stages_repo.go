package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"herd-reproduction/internal/domain/reproduction"
)

type pointerState struct {
	ReproStatus          string
	CurrentProtocolID    *string
	CurrentApplicationID *string
}

// StagesRepo implementa reproduction.Store em memória. O WithTx simula a
// transação com snapshot + restauração, para que o modo dev tenha a mesma
// semântica tudo-ou-nada do Postgres.
type StagesRepo struct {
	mu      sync.Mutex
	events  []reproduction.StageEvent
	animals map[string]pointerState
	nextID  int
}

func NewStagesRepo() *StagesRepo {
	return &StagesRepo{animals: map[string]pointerState{}}
}

func (r *StagesRepo) WithTx(ctx context.Context, fn func(tx reproduction.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapEvents := make([]reproduction.StageEvent, len(r.events))
	copy(snapEvents, r.events)
	snapAnimals := make(map[string]pointerState, len(r.animals))
	for k, v := range r.animals {
		snapAnimals[k] = v
	}
	snapNext := r.nextID

	if err := fn((*stagesTx)(r)); err != nil {
		r.events = snapEvents
		r.animals = snapAnimals
		r.nextID = snapNext
		return err
	}
	return nil
}

func (r *StagesRepo) ApplicationWindows(ctx context.Context, animalID, ownerID string, limit int) ([]reproduction.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type window struct{ start, end string }
	groups := map[string]*window{}
	for _, e := range r.events {
		if e.AnimalID != animalID || e.Type != reproduction.StageType {
			continue
		}
		if ownerID != "" && e.OwnerID != "" && e.OwnerID != ownerID {
			continue
		}
		w, ok := groups[e.ApplicationID]
		if !ok {
			groups[e.ApplicationID] = &window{start: e.Date, end: e.Date}
			continue
		}
		if e.Date < w.start {
			w.start = e.Date
		}
		if e.Date > w.end {
			w.end = e.Date
		}
	}

	out := make([]reproduction.Application, 0, len(groups))
	for id, w := range groups {
		out = append(out, reproduction.Application{ID: id, Start: w.start, End: w.end})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].End > out[j].End })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *StagesRepo) LinksByProtocol(ctx context.Context, protocolID, ownerID string) ([]reproduction.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	starts := map[string]string{}
	for _, e := range r.events {
		if e.ProtocolID != protocolID || e.Type != reproduction.StageType {
			continue
		}
		if ownerID != "" && e.OwnerID != "" && e.OwnerID != ownerID {
			continue
		}
		if cur, ok := starts[e.AnimalID]; !ok || e.Date < cur {
			starts[e.AnimalID] = e.Date
		}
	}

	out := make([]reproduction.Link, 0, len(starts))
	for id, start := range starts {
		out = append(out, reproduction.Link{AnimalID: id, Start: start})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start > out[j].Start
		}
		return out[i].AnimalID < out[j].AnimalID
	})
	return out, nil
}

func (r *StagesRepo) StagesInPeriod(ctx context.Context, f reproduction.PeriodFilter) ([]reproduction.StageEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]reproduction.StageEvent, 0)
	for _, e := range r.events {
		if e.Type != reproduction.StageType {
			continue
		}
		if f.From != "" && e.Date < f.From {
			continue
		}
		if f.To != "" && e.Date > f.To {
			continue
		}
		if f.ProtocolID != "" && e.ProtocolID != f.ProtocolID {
			continue
		}
		if f.OwnerID != "" && e.OwnerID != "" && e.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// -------------------------
// Mutações (já sob o lock do WithTx)
// -------------------------

type stagesTx StagesRepo

func (t *stagesTx) DeleteStagesFrom(ctx context.Context, animalID, fromDate, ownerID string) error {
	kept := t.events[:0]
	for _, e := range t.events {
		drop := e.AnimalID == animalID && e.Type == reproduction.StageType && e.Date >= fromDate
		if drop && ownerID != "" && e.OwnerID != "" && e.OwnerID != ownerID {
			drop = false
		}
		if drop {
			continue
		}
		kept = append(kept, e)
	}
	t.events = kept
	return nil
}

func (t *stagesTx) InsertStage(ctx context.Context, e reproduction.StageEvent) (reproduction.StageEvent, error) {
	t.nextID++
	e.ID = strconv.Itoa(t.nextID)
	t.events = append(t.events, e)
	return e, nil
}

func (t *stagesTx) UpdateAnimalPointers(ctx context.Context, u reproduction.PointerUpdate) error {
	p := u.ProtocolID
	a := u.ApplicationID
	t.animals[u.AnimalID] = pointerState{
		ReproStatus:          u.ReproStatus,
		CurrentProtocolID:    &p,
		CurrentApplicationID: &a,
	}
	return nil
}

func (t *stagesTx) AnimalsWithApplication(ctx context.Context, applicationID, ownerID string) ([]string, error) {
	seen := map[string]bool{}
	for _, e := range t.events {
		if e.ApplicationID != applicationID {
			continue
		}
		if ownerID != "" && e.OwnerID != "" && e.OwnerID != ownerID {
			continue
		}
		seen[e.AnimalID] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (t *stagesTx) DeleteApplication(ctx context.Context, applicationID, ownerID string) error {
	kept := t.events[:0]
	for _, e := range t.events {
		drop := e.ApplicationID == applicationID
		if drop && ownerID != "" && e.OwnerID != "" && e.OwnerID != ownerID {
			drop = false
		}
		if drop {
			continue
		}
		kept = append(kept, e)
	}
	t.events = kept
	return nil
}

func (t *stagesTx) ClearAnimalPointers(ctx context.Context, animalIDs []string, ownerID string) error {
	for _, id := range animalIDs {
		p, ok := t.animals[id]
		if !ok {
			continue
		}
		p.CurrentProtocolID = nil
		p.CurrentApplicationID = nil
		t.animals[id] = p
	}
	return nil
}
