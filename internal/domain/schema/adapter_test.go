package schema

import (
	"context"
	"errors"
	"testing"
)

// fakeCatalog devolve colunas fixas por tabela.
type fakeCatalog struct {
	tables map[string][]string
	err    error
}

func (c *fakeCatalog) Columns(ctx context.Context, table string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.tables[table], nil
}

func TestResolve_CanonicalColumns(t *testing.T) {
	cat := &fakeCatalog{tables: map[string][]string{
		"protocols": {"id", "name", "type", "steps", "owner_id"},
		"animals":   {"id", "reproductive_status", "current_protocol_id", "current_application_id", "owner_id", "updated_at"},
		"animal_events": {
			"id", "animal_id", "date", "type", "details", "result",
			"protocol_id", "application_id", "owner_id", "created_at", "updated_at",
		},
	}}

	m, err := Resolve(context.Background(), cat, DefaultTables())
	if err != nil {
		t.Fatalf("Resolve warning: %v", err)
	}

	if m.Protocols.Steps != "steps" || m.Protocols.OwnerID != "owner_id" {
		t.Fatalf("protocol mapping: %#v", m.Protocols)
	}
	if m.Events.ApplicationID != "application_id" || !m.Events.HasOwner() || !m.Events.HasTimestamps() {
		t.Fatalf("event mapping: %#v", m.Events)
	}
	if m.Animals.ReproStatus != "reproductive_status" || m.Animals.CurrentApplicationID != "current_application_id" {
		t.Fatalf("animal mapping: %#v", m.Animals)
	}
	if err := m.Events.RequireCore(); err != nil {
		t.Fatalf("RequireCore: %v", err)
	}
}

func TestResolve_RenamedColumns_Portuguese(t *testing.T) {
	cat := &fakeCatalog{tables: map[string][]string{
		"protocols":     {"uuid", "nome", "tipo", "etapas"},
		"animals":       {"uuid", "situacao_reprodutiva", "protocolo_atual_id", "aplicacao_atual_id"},
		"animal_events": {"uuid", "vaca_id", "data", "tipo", "detalhes", "protocolo_id", "aplicacao_id", "criado_em"},
	}}

	m, err := Resolve(context.Background(), cat, DefaultTables())
	if err != nil {
		t.Fatalf("Resolve warning: %v", err)
	}

	if m.Protocols.ID != "uuid" || m.Protocols.Name != "nome" || m.Protocols.Steps != "etapas" {
		t.Fatalf("protocol mapping: %#v", m.Protocols)
	}
	if m.Events.AnimalID != "vaca_id" || m.Events.Date != "data" || m.Events.ApplicationID != "aplicacao_id" {
		t.Fatalf("event mapping: %#v", m.Events)
	}
	if m.Events.HasOwner() {
		t.Fatalf("expected no owner column, got %q", m.Events.OwnerID)
	}
	if m.Events.HasTimestamps() {
		t.Fatalf("expected incomplete timestamps (only criado_em)")
	}
	if m.Animals.ReproStatus != "situacao_reprodutiva" {
		t.Fatalf("animal mapping: %#v", m.Animals)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	cat := &fakeCatalog{tables: map[string][]string{
		"protocols":     {"ID", "Name", "Steps"},
		"animals":       {"ID"},
		"animal_events": {"ID", "Animal_ID", "Date", "Type"},
	}}

	m, err := Resolve(context.Background(), cat, DefaultTables())
	if err != nil {
		t.Fatalf("Resolve warning: %v", err)
	}
	// preserva o nome físico original para montar SQL
	if m.Events.AnimalID != "Animal_ID" {
		t.Fatalf("expected physical name Animal_ID, got %q", m.Events.AnimalID)
	}
}

func TestResolve_CatalogFailure_DegradesToDefaults(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("permission denied for information_schema")}

	m, err := Resolve(context.Background(), cat, DefaultTables())
	if err == nil {
		t.Fatalf("expected warning error on catalog failure")
	}

	d := Defaults(DefaultTables())
	if m.Events != d.Events || m.Protocols != d.Protocols || m.Animals != d.Animals {
		t.Fatalf("expected defaults mapping, got %#v", m)
	}
	// ainda utilizável para o caminho feliz
	if err := m.Events.RequireCore(); err != nil {
		t.Fatalf("defaults should satisfy RequireCore: %v", err)
	}
	if m.Events.HasOwner() || m.Events.ApplicationID != "" {
		t.Fatalf("defaults must not resolve optional columns: %#v", m.Events)
	}
}

func TestRequire_MissingColumns(t *testing.T) {
	e := EventColumns{Table: "animal_events", Date: "date", Type: "type"}
	if err := e.RequireCore(); !errors.Is(err, ErrSchemaIncomplete) {
		t.Fatalf("expected ErrSchemaIncomplete, got %v", err)
	}

	e = EventColumns{Table: "animal_events", AnimalID: "animal_id", Date: "date", Type: "type"}
	if err := e.RequireCore(); err != nil {
		t.Fatalf("RequireCore: %v", err)
	}
	if err := e.RequireApplication(); !errors.Is(err, ErrSchemaIncomplete) {
		t.Fatalf("expected ErrSchemaIncomplete for application, got %v", err)
	}
	if err := e.RequireProtocol(); !errors.Is(err, ErrSchemaIncomplete) {
		t.Fatalf("expected ErrSchemaIncomplete for protocol, got %v", err)
	}
}
