package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"herd-reproduction/internal/domain/protocols"
	"herd-reproduction/internal/domain/reproduction"
	"herd-reproduction/internal/domain/schema"

	_ "modernc.org/sqlite" // banco em processo para os testes do adapter
)

// O SQL deste adapter é deliberadamente portável ($n, sem funções do
// servidor), então os testes rodam contra um sqlite em memória em vez de
// exigir um Postgres de verdade.

func openTestDB(t *testing.T, ddl string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// uma conexão só, senão cada conexão vê um :memory: diferente
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// pragmaCatalog resolve colunas via PRAGMA (equivalente sqlite do
// information_schema usado em produção).
type pragmaCatalog struct {
	db *sql.DB
}

func (c pragmaCatalog) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT name FROM pragma_table_info($1)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

const canonicalDDL = `
CREATE TABLE protocols (
	id TEXT PRIMARY KEY,
	name TEXT,
	type TEXT,
	steps TEXT,
	owner_id TEXT
);
CREATE TABLE animals (
	id TEXT PRIMARY KEY,
	reproductive_status TEXT,
	current_protocol_id TEXT,
	current_application_id TEXT,
	owner_id TEXT,
	updated_at TEXT
);
CREATE TABLE animal_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	animal_id TEXT NOT NULL,
	date TEXT NOT NULL,
	type TEXT NOT NULL,
	details TEXT,
	protocol_id TEXT,
	application_id TEXT,
	owner_id TEXT,
	created_at TEXT,
	updated_at TEXT
);
`

func resolveMapping(t *testing.T, db *sql.DB) schema.Mapping {
	t.Helper()
	m, err := schema.Resolve(context.Background(), pragmaCatalog{db: db}, schema.DefaultTables())
	if err != nil {
		t.Fatalf("schema.Resolve warning: %v", err)
	}
	return m
}

func newServices(t *testing.T, db *sql.DB, m schema.Mapping) (*protocols.Service, *reproduction.Service) {
	t.Helper()
	protocolsSvc := protocols.NewService(NewProtocolsRepo(db, m.Protocols))
	return protocolsSvc, reproduction.NewService(protocolsSvc, NewStagesRepo(db, m))
}

func seedCanonical(t *testing.T, db *sql.DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO protocols (id, name, type, steps, owner_id) VALUES
		('p1', 'IATF 10 dias', 'IATF', '[{"day":0,"hormonio":"BE"},{"day":7,"acao":"PGF"},{"day":10,"acao":"IA"}]', 'farm-1')`)
	mustExec(t, db, `INSERT INTO animals (id, owner_id) VALUES ('a1', 'farm-1'), ('a2', 'farm-1')`)
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestStagesRepo_ApplyCancelFlow(t *testing.T) {
	db := openTestDB(t, canonicalDDL)
	seedCanonical(t, db)
	m := resolveMapping(t, db)
	_, svc := newServices(t, db, m)
	ctx := context.Background()

	res, err := svc.Apply(ctx, reproduction.ApplyInput{
		ProtocolID: "p1",
		AnimalIDs:  []string{"a1", "a2"},
		StartDate:  "2024-03-01",
		Details:    map[string]any{"lote": "L7"},
		OwnerID:    "farm-1",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(res.Events))
	}
	// ids ecoados do RETURNING
	for i, e := range res.Events {
		if e.ID == "" {
			t.Fatalf("event %d without storage id", i)
		}
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events WHERE application_id = $1`, res.ApplicationID); n != 6 {
		t.Fatalf("events in db = %d", n)
	}

	// ponteiros gravados
	var status, curProtocol, curApp sql.NullString
	if err := db.QueryRow(`SELECT reproductive_status, current_protocol_id, current_application_id FROM animals WHERE id = 'a1'`).
		Scan(&status, &curProtocol, &curApp); err != nil {
		t.Fatalf("select animal: %v", err)
	}
	if status.String != "IATF" || curProtocol.String != "p1" || curApp.String != res.ApplicationID {
		t.Fatalf("pointers: %v %v %v", status, curProtocol, curApp)
	}

	// reaplicação substitui em vez de duplicar
	res2, err := svc.Apply(ctx, reproduction.ApplyInput{
		ProtocolID: "p1",
		AnimalIDs:  []string{"a1", "a2"},
		StartDate:  "2024-03-01",
		OwnerID:    "farm-1",
	})
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events`); n != 6 {
		t.Fatalf("expected 6 events after reapply, got %d", n)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events WHERE application_id = $1`, res.ApplicationID); n != 0 {
		t.Fatalf("stale application events remain: %d", n)
	}

	// resolução ativa direto do fluxo de eventos
	app, err := svc.ResolveActive(ctx, "a1", "2024-03-11", "farm-1")
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if app == nil || app.ID != res2.ApplicationID || app.Start != "2024-03-01" || app.End != "2024-03-11" {
		t.Fatalf("active = %#v", app)
	}
	if app, _ := svc.ResolveActive(ctx, "a1", "2024-03-12", "farm-1"); app != nil {
		t.Fatalf("expected nil after window end, got %#v", app)
	}

	// vínculos do protocolo
	links, err := svc.CollectLinks(ctx, "p1", "", "2024-03-09", "farm-1")
	if err != nil {
		t.Fatalf("CollectLinks: %v", err)
	}
	if len(links.Items) != 2 || links.LastStepOffset != 10 {
		t.Fatalf("links = %#v", links)
	}

	// etapas no período
	stages, err := svc.ListStagesInPeriod(ctx, reproduction.PeriodFilter{From: "2024-03-02", To: "2024-03-10", OwnerID: "farm-1"})
	if err != nil {
		t.Fatalf("ListStagesInPeriod: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages in period, got %d", len(stages))
	}
	for _, s := range stages {
		if s.Date != "2024-03-08" {
			t.Fatalf("stage date = %q", s.Date)
		}
		if s.Details["lote"] == "L7" {
			t.Fatalf("details of second apply should not carry lote: %#v", s.Details)
		}
		if s.Details[reproduction.DetailProtocolName] != "IATF 10 dias" {
			t.Fatalf("traceability: %#v", s.Details)
		}
	}

	// cancelamento limpa eventos e ponteiros, preserva o status
	out, err := svc.Cancel(ctx, res2.ApplicationID, "farm-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if out.AffectedAnimals != 2 {
		t.Fatalf("affected = %d", out.AffectedAnimals)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events`); n != 0 {
		t.Fatalf("events remain after cancel: %d", n)
	}
	if err := db.QueryRow(`SELECT reproductive_status, current_protocol_id, current_application_id FROM animals WHERE id = 'a2'`).
		Scan(&status, &curProtocol, &curApp); err != nil {
		t.Fatalf("select animal: %v", err)
	}
	if curProtocol.Valid || curApp.Valid {
		t.Fatalf("pointers not cleared: %v %v", curProtocol, curApp)
	}
	if status.String != "IATF" {
		t.Fatalf("status must survive cancel, got %v", status)
	}
}

func TestStagesRepo_OwnerScoping(t *testing.T) {
	db := openTestDB(t, canonicalDDL)
	seedCanonical(t, db)
	m := resolveMapping(t, db)
	_, svc := newServices(t, db, m)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, reproduction.ApplyInput{
		ProtocolID: "p1", AnimalIDs: []string{"a1"}, StartDate: "2024-03-01", OwnerID: "farm-1",
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// outro dono não enxerga o protocolo nem os eventos
	if _, err := svc.CollectLinks(ctx, "p1", "", "", "farm-2"); !errors.Is(err, protocols.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	stages, err := svc.ListStagesInPeriod(ctx, reproduction.PeriodFilter{OwnerID: "farm-2"})
	if err != nil {
		t.Fatalf("ListStagesInPeriod: %v", err)
	}
	if len(stages) != 0 {
		t.Fatalf("other owner sees %d stages", len(stages))
	}
}

const portugueseDDL = `
CREATE TABLE protocols (
	uuid TEXT PRIMARY KEY,
	nome TEXT,
	tipo TEXT,
	etapas TEXT
);
CREATE TABLE animals (
	uuid TEXT PRIMARY KEY,
	situacao_reprodutiva TEXT,
	protocolo_atual_id TEXT,
	aplicacao_atual_id TEXT
);
CREATE TABLE animal_events (
	vaca_id TEXT NOT NULL,
	data TEXT NOT NULL,
	tipo TEXT NOT NULL,
	detalhes TEXT,
	protocolo_id TEXT,
	aplicacao_id TEXT
);
`

func TestStagesRepo_RenamedSchema(t *testing.T) {
	db := openTestDB(t, portugueseDDL)
	mustExec(t, db, `INSERT INTO protocols (uuid, nome, tipo, etapas) VALUES
		('p1', 'Pré-sinc 14d', 'sincronizacao', '[{"dia":0},{"dia":14}]')`)
	mustExec(t, db, `INSERT INTO animals (uuid) VALUES ('a1')`)

	m := resolveMapping(t, db)
	if m.Events.AnimalID != "vaca_id" || m.Events.ID != "" {
		t.Fatalf("mapping: %#v", m.Events)
	}

	_, svc := newServices(t, db, m)
	ctx := context.Background()

	res, err := svc.Apply(ctx, reproduction.ApplyInput{
		ProtocolID: "p1",
		AnimalIDs:  []string{"a1"},
		StartDate:  "01/03/2024",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res.Events))
	}
	// sem coluna de id nos eventos, o eco volta sem id
	if res.Events[0].ID != "" {
		t.Fatalf("unexpected id %q", res.Events[0].ID)
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events WHERE vaca_id = 'a1' AND aplicacao_id = $1`, res.ApplicationID); n != 2 {
		t.Fatalf("events in db = %d", n)
	}

	var status sql.NullString
	if err := db.QueryRow(`SELECT situacao_reprodutiva FROM animals WHERE uuid = 'a1'`).Scan(&status); err != nil {
		t.Fatalf("select animal: %v", err)
	}
	if status.String != "Pré-sincronização" {
		t.Fatalf("status = %v", status)
	}

	app, err := svc.ResolveActive(ctx, "a1", "2024-03-10", "")
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if app == nil || app.Start != "2024-03-01" || app.End != "2024-03-15" {
		t.Fatalf("active = %#v", app)
	}
}

const minimalDDL = `
CREATE TABLE protocols (
	id TEXT PRIMARY KEY,
	name TEXT,
	type TEXT,
	steps TEXT
);
CREATE TABLE animals (
	id TEXT PRIMARY KEY
);
CREATE TABLE animal_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	animal_id TEXT NOT NULL,
	date TEXT NOT NULL,
	type TEXT NOT NULL
);
`

func TestStagesRepo_MinimalSchema(t *testing.T) {
	db := openTestDB(t, minimalDDL)
	mustExec(t, db, `INSERT INTO protocols (id, steps) VALUES ('p1', '[{"day":0},{"day":5}]')`)
	mustExec(t, db, `INSERT INTO animals (id) VALUES ('a1')`)

	m := resolveMapping(t, db)
	_, svc := newServices(t, db, m)
	ctx := context.Background()

	// aplicar funciona mesmo sem colunas opcionais (details, protocolo, aplicação)
	res, err := svc.Apply(ctx, reproduction.ApplyInput{
		ProtocolID: "p1",
		AnimalIDs:  []string{"a1"},
		StartDate:  "2024-03-01",
		Details:    map[string]any{"ignorado": true},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events`); n != 2 {
		t.Fatalf("events = %d", n)
	}

	// sem coluna de aplicação: cancelamento falha com esquema incompleto
	if _, err := svc.Cancel(ctx, res.ApplicationID, ""); !errors.Is(err, schema.ErrSchemaIncomplete) {
		t.Fatalf("expected ErrSchemaIncomplete, got %v", err)
	}

	// e a resolução ativa degrada para um grupo único
	app, err := svc.ResolveActive(ctx, "a1", "2024-03-03", "")
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}
	if app == nil || app.ID != "" || app.Start != "2024-03-01" || app.End != "2024-03-06" {
		t.Fatalf("active = %#v", app)
	}

	// vínculos por protocolo exigem a coluna de protocolo
	if _, err := svc.CollectLinks(ctx, "p1", "", "", ""); !errors.Is(err, schema.ErrSchemaIncomplete) {
		t.Fatalf("expected ErrSchemaIncomplete for links, got %v", err)
	}
}

func TestProtocolsRepo_NotFoundAndOwnerScope(t *testing.T) {
	db := openTestDB(t, canonicalDDL)
	seedCanonical(t, db)
	m := resolveMapping(t, db)
	repo := NewProtocolsRepo(db, m.Protocols)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing", ""); !errors.Is(err, protocols.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "p1", "farm-2"); !errors.Is(err, protocols.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}

	rec, err := repo.GetByID(ctx, "p1", "farm-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Name != "IATF 10 dias" || rec.Type != "IATF" {
		t.Fatalf("record = %#v", rec)
	}
	steps, err := protocols.DecodeSteps(rec.Steps)
	if err != nil {
		t.Fatalf("DecodeSteps on stored text: %v", err)
	}
	if len(steps) != 3 || steps[2].Offset != 10 {
		t.Fatalf("steps = %#v", steps)
	}

	list, err := repo.List(ctx, "farm-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %#v", list)
	}
}

func TestStagesRepo_RollbackOnFailure(t *testing.T) {
	db := openTestDB(t, canonicalDDL)
	seedCanonical(t, db)
	m := resolveMapping(t, db)
	repo := NewStagesRepo(db, m)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx reproduction.Tx) error {
		_, insErr := tx.InsertStage(ctx, reproduction.StageEvent{
			AnimalID:  "a1",
			Date:      "2024-03-01",
			Type:      reproduction.StageType,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		if insErr != nil {
			return insErr
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM animal_events`); n != 0 {
		t.Fatalf("rollback failed, %d events remain", n)
	}
}
