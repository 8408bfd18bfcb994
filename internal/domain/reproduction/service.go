package reproduction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"herd-reproduction/internal/domain/protocols"
	"herd-reproduction/internal/platform/dates"
)

var ErrInvalidInput = errors.New("invalid input")

// StatusActive é o literal aceito no filtro de vínculos ativos.
const StatusActive = "ATIVO"

// activeWindowGroups limita quantas aplicações recentes a resolução ativa examina.
const activeWindowGroups = 5

type Service struct {
	protocols *protocols.Service
	store     Store
	now       func() time.Time
}

func NewService(protocolsSvc *protocols.Service, store Store) *Service {
	return &Service{
		protocols: protocolsSvc,
		store:     store,
		now:       time.Now,
	}
}

type ApplyInput struct {
	ProtocolID string
	AnimalIDs  []string
	StartDate  string
	Details    map[string]any
	OwnerID    string
}

type ApplyResult struct {
	ApplicationID string
	Events        []StageEvent
}

// Apply aplica o protocolo à coorte numa única transação: para cada
// animal, apaga as etapas futuras a partir da data de início (reaplicar é
// substituir, nunca duplicar), insere as etapas novas carimbadas com uma
// aplicação nova e atualiza os ponteiros do animal. Tudo ou nada.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (ApplyResult, error) {
	animals := trimAll(in.AnimalIDs)
	if len(animals) == 0 {
		return ApplyResult{}, ErrInvalidInput
	}

	p, err := s.protocols.Load(ctx, in.ProtocolID, in.OwnerID)
	if err != nil {
		return ApplyResult{}, err
	}

	start, err := dates.Normalize(in.StartDate)
	if err != nil {
		return ApplyResult{}, err
	}

	applicationID := uuid.NewString()
	now := s.now()

	var inserted []StageEvent
	err = s.store.WithTx(ctx, func(tx Tx) error {
		for _, animalID := range animals {
			// apagar antes de inserir: o clear não pode engolir as etapas novas
			if err := tx.DeleteStagesFrom(ctx, animalID, start, in.OwnerID); err != nil {
				return err
			}

			for _, step := range p.Steps {
				date, err := dates.AddDays(start, step.Offset)
				if err != nil {
					return err
				}

				saved, err := tx.InsertStage(ctx, StageEvent{
					AnimalID:      animalID,
					Date:          date,
					Type:          StageType,
					Details:       stageDetails(in.Details, step.Fields, p.Name),
					ProtocolID:    p.ID,
					ApplicationID: applicationID,
					OwnerID:       in.OwnerID,
					CreatedAt:     now,
					UpdatedAt:     now,
				})
				if err != nil {
					return err
				}
				inserted = append(inserted, saved)
			}

			if err := tx.UpdateAnimalPointers(ctx, PointerUpdate{
				AnimalID:      animalID,
				ReproStatus:   string(p.Category),
				ProtocolID:    p.ID,
				ApplicationID: applicationID,
				OwnerID:       in.OwnerID,
				UpdatedAt:     now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}

	return ApplyResult{ApplicationID: applicationID, Events: inserted}, nil
}

type CancelResult struct {
	AffectedAnimals int
}

// Cancel desfaz uma aplicação inteira: apaga todos os eventos que a
// carregam e anula os ponteiros dos animais atingidos. Não mexe no status
// reprodutivo (cancelar não afirma um estado novo, só remove a agenda).
func (s *Service) Cancel(ctx context.Context, applicationID, ownerID string) (CancelResult, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return CancelResult{}, ErrInvalidInput
	}

	var affected int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		animals, err := tx.AnimalsWithApplication(ctx, applicationID, ownerID)
		if err != nil {
			return err
		}

		if err := tx.DeleteApplication(ctx, applicationID, ownerID); err != nil {
			return err
		}

		if len(animals) > 0 {
			if err := tx.ClearAnimalPointers(ctx, animals, ownerID); err != nil {
				return err
			}
		}

		affected = len(animals)
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}

	return CancelResult{AffectedAnimals: affected}, nil
}

// ResolveActive infere, só do fluxo de eventos, qual aplicação cobre a
// data de referência (hoje, se vazia). Examina no máximo as 5 aplicações
// de fim mais recente e devolve nil quando nenhum intervalo contém a data.
// Os ponteiros em cache do animal não entram aqui de propósito.
func (s *Service) ResolveActive(ctx context.Context, animalID, referenceDate, ownerID string) (*Application, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}

	ref, err := s.referenceDate(referenceDate)
	if err != nil {
		return nil, err
	}

	windows, err := s.store.ApplicationWindows(ctx, animalID, ownerID, activeWindowGroups)
	if err != nil {
		return nil, err
	}

	for _, w := range windows {
		// comparação lexicográfica funciona na forma canônica
		if w.Start <= ref && ref <= w.End {
			out := w
			return &out, nil
		}
	}
	return nil, nil
}

// CollectLinks lista os animais que já receberam o protocolo, cada um com
// a data da primeira etapa. Com status "ATIVO", filtra para os animais
// cujo fim calculado (início + último deslocamento) ainda não passou.
func (s *Service) CollectLinks(ctx context.Context, protocolID, status, referenceDate, ownerID string) (LinkList, error) {
	p, err := s.protocols.Load(ctx, protocolID, ownerID)
	if err != nil {
		return LinkList{}, err
	}
	last := p.LastStepOffset()

	ref, err := s.referenceDate(referenceDate)
	if err != nil {
		return LinkList{}, err
	}

	links, err := s.store.LinksByProtocol(ctx, p.ID, ownerID)
	if err != nil {
		return LinkList{}, err
	}

	if strings.TrimSpace(status) == StatusActive {
		active := make([]Link, 0, len(links))
		for _, l := range links {
			end, err := dates.AddDays(l.Start, last)
			if err != nil {
				return LinkList{}, err
			}
			if end >= ref {
				active = append(active, l)
			}
		}
		links = active
	}

	return LinkList{Items: links, LastStepOffset: last, ReferenceDate: ref}, nil
}

// ListStagesInPeriod lista os eventos de etapa num intervalo de datas
// (qualquer extremo pode ficar aberto), opcionalmente por protocolo.
// Leitura pura, sem efeitos.
func (s *Service) ListStagesInPeriod(ctx context.Context, f PeriodFilter) ([]StageEvent, error) {
	if strings.TrimSpace(f.From) != "" {
		from, err := dates.Normalize(f.From)
		if err != nil {
			return nil, err
		}
		f.From = from
	} else {
		f.From = ""
	}

	if strings.TrimSpace(f.To) != "" {
		to, err := dates.Normalize(f.To)
		if err != nil {
			return nil, err
		}
		f.To = to
	} else {
		f.To = ""
	}

	f.ProtocolID = strings.TrimSpace(f.ProtocolID)
	return s.store.StagesInPeriod(ctx, f)
}

func (s *Service) referenceDate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return dates.Format(s.now()), nil
	}
	return dates.Normalize(raw)
}

// stageDetails monta o payload da etapa: comuns < campos da etapa < rastreabilidade.
func stageDetails(common, step map[string]any, protocolName string) map[string]any {
	out := make(map[string]any, len(common)+len(step)+1)
	for k, v := range common {
		out[k] = v
	}
	for k, v := range step {
		out[k] = v
	}
	if strings.TrimSpace(protocolName) != "" {
		out[DetailProtocolName] = protocolName
	}
	return out
}

func trimAll(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}
