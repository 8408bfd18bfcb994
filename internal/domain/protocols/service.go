package protocols

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("protocol not found")
	ErrNoSteps  = errors.New("protocol has no steps")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Load carrega um protocolo pronto para aplicar: etapas decodificadas e
// categoria derivada. ErrNotFound se o id não resolve (no escopo do dono,
// se houver); ErrNoSteps se as etapas não decodificam numa lista não vazia.
func (s *Service) Load(ctx context.Context, id, ownerID string) (Protocol, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Protocol{}, ErrNotFound
	}

	rec, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return Protocol{}, err
	}

	steps, err := DecodeSteps(rec.Steps)
	if err != nil {
		return Protocol{}, err
	}

	return Protocol{
		ID:       rec.ID,
		Name:     rec.Name,
		Type:     rec.Type,
		Category: DeriveCategory(rec.Type),
		Steps:    steps,
	}, nil
}

// List devolve o catálogo resumido. Protocolos com etapas quebradas
// aparecem na lista mesmo assim; só a aplicação exige etapas válidas.
func (s *Service) List(ctx context.Context, ownerID string) ([]Summary, error) {
	recs, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summary{
			ID:       r.ID,
			Name:     r.Name,
			Category: DeriveCategory(r.Type),
		})
	}
	return out, nil
}
