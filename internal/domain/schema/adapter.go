package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrSchemaIncomplete = errors.New("schema incomplete")

// Catalog expõe os nomes das colunas físicas de uma tabela.
// A implementação Postgres consulta information_schema; nos testes usa-se
// um catálogo fixo ou PRAGMA do sqlite.
type Catalog interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// Tables nomeia as tabelas físicas relevantes para o núcleo.
type Tables struct {
	Protocols string
	Animals   string
	Events    string
}

func DefaultTables() Tables {
	return Tables{
		Protocols: "protocols",
		Animals:   "animals",
		Events:    "animal_events",
	}
}

// ProtocolColumns mapeia os campos lógicos do protocolo para colunas físicas.
// Campo vazio = coluna ausente neste deployment.
type ProtocolColumns struct {
	Table   string
	ID      string
	Name    string
	Type    string
	Steps   string
	OwnerID string
}

// EventColumns mapeia os campos lógicos dos eventos derivados.
type EventColumns struct {
	Table         string
	ID            string
	AnimalID      string
	Date          string
	Type          string
	Details       string
	Result        string
	ProtocolID    string
	ApplicationID string
	OwnerID       string
	CreatedAt     string
	UpdatedAt     string
}

// AnimalColumns mapeia os ponteiros de estado do animal.
type AnimalColumns struct {
	Table                string
	ID                   string
	ReproStatus          string
	CurrentProtocolID    string
	CurrentApplicationID string
	OwnerID              string
	UpdatedAt            string
}

type Mapping struct {
	Protocols ProtocolColumns
	Animals   AnimalColumns
	Events    EventColumns
}

func (e EventColumns) HasOwner() bool      { return e.OwnerID != "" }
func (e EventColumns) HasTimestamps() bool { return e.CreatedAt != "" && e.UpdatedAt != "" }
func (a AnimalColumns) HasOwner() bool     { return a.OwnerID != "" }

// RequireCore valida as colunas sem as quais o motor de aplicação não
// funciona. Retorna ErrSchemaIncomplete nomeando a primeira ausente.
func (e EventColumns) RequireCore() error {
	switch {
	case e.AnimalID == "":
		return fmt.Errorf("%w: event animal reference column", ErrSchemaIncomplete)
	case e.Date == "":
		return fmt.Errorf("%w: event date column", ErrSchemaIncomplete)
	case e.Type == "":
		return fmt.Errorf("%w: event type column", ErrSchemaIncomplete)
	}
	return nil
}

// RequireApplication valida a coluna de vínculo com a aplicação,
// obrigatória para cancelamento.
func (e EventColumns) RequireApplication() error {
	if e.ApplicationID == "" {
		return fmt.Errorf("%w: event application reference column", ErrSchemaIncomplete)
	}
	return nil
}

// RequireProtocol valida a coluna de vínculo com o protocolo,
// obrigatória para listar animais vinculados.
func (e EventColumns) RequireProtocol() error {
	if e.ProtocolID == "" {
		return fmt.Errorf("%w: event protocol reference column", ErrSchemaIncomplete)
	}
	return nil
}

// Defaults devolve o mapeamento mínimo usado quando a introspecção do
// catálogo falha: nomes canônicos para as colunas obrigatórias, nenhuma
// coluna opcional resolvida.
func Defaults(t Tables) Mapping {
	return Mapping{
		Protocols: ProtocolColumns{Table: t.Protocols, ID: "id", Steps: "steps"},
		Animals:   AnimalColumns{Table: t.Animals, ID: "id"},
		Events: EventColumns{
			Table:    t.Events,
			ID:       "id",
			AnimalID: "animal_id",
			Date:     "date",
			Type:     "type",
			Details:  "details",
		},
	}
}

// Candidatos por campo lógico, em ordem de preferência. Os nomes em
// português cobrem os bancos legados que este núcleo precisa tolerar.
var (
	idCandidates = []string{"id", "uuid"}

	protocolNameCandidates  = []string{"name", "nome"}
	protocolTypeCandidates  = []string{"type", "tipo"}
	protocolStepsCandidates = []string{"steps", "etapas", "passos"}

	eventAnimalCandidates      = []string{"animal_id", "animal", "vaca_id"}
	eventDateCandidates        = []string{"date", "data"}
	eventTypeCandidates        = []string{"type", "tipo"}
	eventDetailsCandidates     = []string{"details", "detalhes", "payload"}
	eventResultCandidates      = []string{"result", "resultado"}
	eventProtocolCandidates    = []string{"protocol_id", "protocolo_id"}
	eventApplicationCandidates = []string{"application_id", "aplicacao_id"}

	animalStatusCandidates      = []string{"reproductive_status", "situacao_reprodutiva", "status_reprodutivo"}
	animalProtocolCandidates    = []string{"current_protocol_id", "protocolo_atual_id"}
	animalApplicationCandidates = []string{"current_application_id", "aplicacao_atual_id"}

	ownerCandidates     = []string{"owner_id", "user_id", "tenant_id"}
	createdAtCandidates = []string{"created_at", "criado_em"}
	updatedAtCandidates = []string{"updated_at", "atualizado_em"}
)

// Resolve inspeciona o catálogo uma vez e devolve o mapeamento de colunas.
// O mapeamento devolvido é sempre utilizável: falhas de introspecção
// degradam para Defaults e são reportadas no erro (aviso, não fatal).
func Resolve(ctx context.Context, cat Catalog, t Tables) (Mapping, error) {
	m := Defaults(t)
	if cat == nil {
		return m, errors.New("schema: nil catalog, using defaults")
	}

	var warn error

	if cols, err := columnSet(ctx, cat, t.Protocols); err != nil {
		warn = errors.Join(warn, fmt.Errorf("schema: introspect %s: %w", t.Protocols, err))
	} else {
		m.Protocols = ProtocolColumns{
			Table:   t.Protocols,
			ID:      cols.first(idCandidates),
			Name:    cols.first(protocolNameCandidates),
			Type:    cols.first(protocolTypeCandidates),
			Steps:   cols.first(protocolStepsCandidates),
			OwnerID: cols.first(ownerCandidates),
		}
	}

	if cols, err := columnSet(ctx, cat, t.Animals); err != nil {
		warn = errors.Join(warn, fmt.Errorf("schema: introspect %s: %w", t.Animals, err))
	} else {
		m.Animals = AnimalColumns{
			Table:                t.Animals,
			ID:                   cols.first(idCandidates),
			ReproStatus:          cols.first(animalStatusCandidates),
			CurrentProtocolID:    cols.first(animalProtocolCandidates),
			CurrentApplicationID: cols.first(animalApplicationCandidates),
			OwnerID:              cols.first(ownerCandidates),
			UpdatedAt:            cols.first(updatedAtCandidates),
		}
	}

	if cols, err := columnSet(ctx, cat, t.Events); err != nil {
		warn = errors.Join(warn, fmt.Errorf("schema: introspect %s: %w", t.Events, err))
	} else {
		m.Events = EventColumns{
			Table:         t.Events,
			ID:            cols.first(idCandidates),
			AnimalID:      cols.first(eventAnimalCandidates),
			Date:          cols.first(eventDateCandidates),
			Type:          cols.first(eventTypeCandidates),
			Details:       cols.first(eventDetailsCandidates),
			Result:        cols.first(eventResultCandidates),
			ProtocolID:    cols.first(eventProtocolCandidates),
			ApplicationID: cols.first(eventApplicationCandidates),
			OwnerID:       cols.first(ownerCandidates),
			CreatedAt:     cols.first(createdAtCandidates),
			UpdatedAt:     cols.first(updatedAtCandidates),
		}
	}

	return m, warn
}

// set indexa colunas por nome minúsculo preservando o nome físico original.
type set map[string]string

func columnSet(ctx context.Context, cat Catalog, table string) (set, error) {
	names, err := cat.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}
	s := make(set, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := s[key]; !ok {
			s[key] = n
		}
	}
	return s, nil
}

// first devolve o nome físico do primeiro candidato presente (case-insensitive).
func (s set) first(candidates []string) string {
	for _, c := range candidates {
		if name, ok := s[strings.ToLower(c)]; ok {
			return name
		}
	}
	return ""
}
