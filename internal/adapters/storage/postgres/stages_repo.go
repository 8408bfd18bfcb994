package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"herd-reproduction/internal/domain/reproduction"
	"herd-reproduction/internal/domain/schema"
)

// StagesRepo implementa reproduction.Store sobre o esquema resolvido pelo
// schema adapter: todo SQL é montado com os nomes físicos do mapeamento, e
// colunas opcionais ausentes simplesmente não participam.
type StagesRepo struct {
	db *sql.DB
	m  schema.Mapping
}

func NewStagesRepo(db *sql.DB, m schema.Mapping) *StagesRepo {
	return &StagesRepo{db: db, m: m}
}

// WithTx abre a transação que cobre a mutação inteira: commit no retorno
// nil, rollback em qualquer erro.
func (r *StagesRepo) WithTx(ctx context.Context, fn func(tx reproduction.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&stagesTx{q: tx, m: r.m}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *StagesRepo) ApplicationWindows(ctx context.Context, animalID, ownerID string, limit int) ([]reproduction.Application, error) {
	e := r.m.Events
	if err := e.RequireCore(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	where := fmt.Sprintf("%s = $1 AND %s = $2", quoteIdent(e.AnimalID), quoteIdent(e.Type))
	args := []any{animalID, reproduction.StageType}
	argN := 3
	if e.OwnerID != "" && ownerID != "" {
		where += fmt.Sprintf(" AND %s = $%d", quoteIdent(e.OwnerID), argN)
		args = append(args, ownerID)
		argN++
	}

	// Sem coluna de aplicação, todos os eventos do animal formam um grupo só.
	if e.ApplicationID == "" {
		query := fmt.Sprintf(
			"SELECT MIN(%s), MAX(%s) FROM %s WHERE %s",
			quoteIdent(e.Date), quoteIdent(e.Date), quoteIdent(e.Table), where,
		)
		var min, max any
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&min, &max); err != nil {
			return nil, err
		}
		if min == nil {
			return nil, nil
		}
		return []reproduction.Application{{Start: dateString(min), End: dateString(max)}}, nil
	}

	query := fmt.Sprintf(
		"SELECT %s, MIN(%s), MAX(%s) FROM %s WHERE %s GROUP BY %s ORDER BY MAX(%s) DESC LIMIT $%d",
		quoteIdent(e.ApplicationID), quoteIdent(e.Date), quoteIdent(e.Date),
		quoteIdent(e.Table), where, quoteIdent(e.ApplicationID), quoteIdent(e.Date), argN,
	)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reproduction.Application, 0, limit)
	for rows.Next() {
		var app, min, max any
		if err := rows.Scan(&app, &min, &max); err != nil {
			return nil, err
		}
		out = append(out, reproduction.Application{
			ID:    idString(app),
			Start: dateString(min),
			End:   dateString(max),
		})
	}
	return out, rows.Err()
}

func (r *StagesRepo) LinksByProtocol(ctx context.Context, protocolID, ownerID string) ([]reproduction.Link, error) {
	e := r.m.Events
	if err := e.RequireCore(); err != nil {
		return nil, err
	}
	if err := e.RequireProtocol(); err != nil {
		return nil, err
	}

	where := fmt.Sprintf("%s = $1 AND %s = $2", quoteIdent(e.ProtocolID), quoteIdent(e.Type))
	args := []any{protocolID, reproduction.StageType}
	if e.OwnerID != "" && ownerID != "" {
		where += fmt.Sprintf(" AND %s = $3", quoteIdent(e.OwnerID))
		args = append(args, ownerID)
	}

	query := fmt.Sprintf(
		"SELECT %s, MIN(%s) FROM %s WHERE %s GROUP BY %s ORDER BY MIN(%s) DESC",
		quoteIdent(e.AnimalID), quoteIdent(e.Date), quoteIdent(e.Table),
		where, quoteIdent(e.AnimalID), quoteIdent(e.Date),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reproduction.Link, 0)
	for rows.Next() {
		var animal, start any
		if err := rows.Scan(&animal, &start); err != nil {
			return nil, err
		}
		out = append(out, reproduction.Link{AnimalID: idString(animal), Start: dateString(start)})
	}
	return out, rows.Err()
}

func (r *StagesRepo) StagesInPeriod(ctx context.Context, f reproduction.PeriodFilter) ([]reproduction.StageEvent, error) {
	e := r.m.Events
	if err := e.RequireCore(); err != nil {
		return nil, err
	}

	sel, pos := eventSelectList(e)

	where := fmt.Sprintf("%s = $1", quoteIdent(e.Type))
	args := []any{reproduction.StageType}
	argN := 2
	and := func(clause string, v any) {
		where += fmt.Sprintf(" AND "+clause, argN)
		args = append(args, v)
		argN++
	}
	if f.From != "" {
		and(quoteIdent(e.Date)+" >= $%d", f.From)
	}
	if f.To != "" {
		and(quoteIdent(e.Date)+" <= $%d", f.To)
	}
	if f.ProtocolID != "" {
		if err := e.RequireProtocol(); err != nil {
			return nil, err
		}
		and(quoteIdent(e.ProtocolID)+" = $%d", f.ProtocolID)
	}
	if e.OwnerID != "" && f.OwnerID != "" {
		and(quoteIdent(e.OwnerID)+" = $%d", f.OwnerID)
	}

	order := quoteIdent(e.Date)
	if e.CreatedAt != "" {
		order += ", " + quoteIdent(e.CreatedAt)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(sel, ", "), quoteIdent(e.Table), where, order,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reproduction.StageEvent, 0)
	for rows.Next() {
		raw := make([]any, len(sel))
		ptrs := make([]any, len(sel))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, eventFromRow(raw, pos))
	}
	return out, rows.Err()
}

// -------------------------
// Mutações (dentro da transação)
// -------------------------

type stagesTx struct {
	q querier
	m schema.Mapping
}

func (t *stagesTx) DeleteStagesFrom(ctx context.Context, animalID, fromDate, ownerID string) error {
	e := t.m.Events
	if err := e.RequireCore(); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s >= $3",
		quoteIdent(e.Table), quoteIdent(e.AnimalID), quoteIdent(e.Type), quoteIdent(e.Date),
	)
	args := []any{animalID, reproduction.StageType, fromDate}
	if e.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" AND %s = $4", quoteIdent(e.OwnerID))
		args = append(args, ownerID)
	}

	_, err := t.q.ExecContext(ctx, query, args...)
	return err
}

func (t *stagesTx) InsertStage(ctx context.Context, ev reproduction.StageEvent) (reproduction.StageEvent, error) {
	e := t.m.Events
	if err := e.RequireCore(); err != nil {
		return reproduction.StageEvent{}, err
	}

	cols := make([]string, 0, 9)
	args := make([]any, 0, 9)
	add := func(col string, v any) {
		cols = append(cols, quoteIdent(col))
		args = append(args, v)
	}

	add(e.AnimalID, ev.AnimalID)
	add(e.Date, ev.Date)
	add(e.Type, ev.Type)
	if e.Details != "" && ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return reproduction.StageEvent{}, fmt.Errorf("encode stage details: %w", err)
		}
		add(e.Details, string(b))
	}
	if e.ProtocolID != "" && ev.ProtocolID != "" {
		add(e.ProtocolID, ev.ProtocolID)
	}
	if e.ApplicationID != "" && ev.ApplicationID != "" {
		add(e.ApplicationID, ev.ApplicationID)
	}
	if e.OwnerID != "" && ev.OwnerID != "" {
		add(e.OwnerID, ev.OwnerID)
	}
	if e.CreatedAt != "" {
		add(e.CreatedAt, ev.CreatedAt)
	}
	if e.UpdatedAt != "" {
		add(e.UpdatedAt, ev.UpdatedAt)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(e.Table), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	if e.ID == "" {
		_, err := t.q.ExecContext(ctx, query, args...)
		return ev, err
	}

	// eco do id atribuído pelo armazenamento
	query += " RETURNING " + quoteIdent(e.ID)
	var id any
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return reproduction.StageEvent{}, err
	}
	ev.ID = idString(id)
	return ev, nil
}

func (t *stagesTx) UpdateAnimalPointers(ctx context.Context, u reproduction.PointerUpdate) error {
	a := t.m.Animals
	if a.ID == "" {
		return nil
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)
	argN := 1
	set := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdent(col), argN))
		args = append(args, v)
		argN++
	}

	if a.ReproStatus != "" {
		set(a.ReproStatus, u.ReproStatus)
	}
	if a.CurrentProtocolID != "" {
		set(a.CurrentProtocolID, u.ProtocolID)
	}
	if a.CurrentApplicationID != "" {
		set(a.CurrentApplicationID, u.ApplicationID)
	}
	// sem nenhum campo de domínio para gravar, não emite UPDATE
	// (nem só para carimbar o updated_at)
	if len(sets) == 0 {
		return nil
	}
	if a.UpdatedAt != "" {
		set(a.UpdatedAt, u.UpdatedAt)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		quoteIdent(a.Table), strings.Join(sets, ", "), quoteIdent(a.ID), argN,
	)
	args = append(args, u.AnimalID)
	argN++
	if a.OwnerID != "" && u.OwnerID != "" {
		query += fmt.Sprintf(" AND %s = $%d", quoteIdent(a.OwnerID), argN)
		args = append(args, u.OwnerID)
	}

	_, err := t.q.ExecContext(ctx, query, args...)
	return err
}

func (t *stagesTx) AnimalsWithApplication(ctx context.Context, applicationID, ownerID string) ([]string, error) {
	e := t.m.Events
	if err := e.RequireApplication(); err != nil {
		return nil, err
	}
	if e.AnimalID == "" {
		return nil, fmt.Errorf("%w: event animal reference column", schema.ErrSchemaIncomplete)
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE %s = $1",
		quoteIdent(e.AnimalID), quoteIdent(e.Table), quoteIdent(e.ApplicationID),
	)
	args := []any{applicationID}
	if e.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" AND %s = $2", quoteIdent(e.OwnerID))
		args = append(args, ownerID)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id any
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, idString(id))
	}
	return out, rows.Err()
}

func (t *stagesTx) DeleteApplication(ctx context.Context, applicationID, ownerID string) error {
	e := t.m.Events
	if err := e.RequireApplication(); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1",
		quoteIdent(e.Table), quoteIdent(e.ApplicationID),
	)
	args := []any{applicationID}
	if e.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" AND %s = $2", quoteIdent(e.OwnerID))
		args = append(args, ownerID)
	}

	_, err := t.q.ExecContext(ctx, query, args...)
	return err
}

func (t *stagesTx) ClearAnimalPointers(ctx context.Context, animalIDs []string, ownerID string) error {
	a := t.m.Animals
	if a.ID == "" || len(animalIDs) == 0 {
		return nil
	}

	sets := make([]string, 0, 2)
	if a.CurrentProtocolID != "" {
		sets = append(sets, quoteIdent(a.CurrentProtocolID)+" = NULL")
	}
	if a.CurrentApplicationID != "" {
		sets = append(sets, quoteIdent(a.CurrentApplicationID)+" = NULL")
	}
	// esquema sem ponteiros: nada a limpar
	if len(sets) == 0 {
		return nil
	}

	placeholders := make([]string, len(animalIDs))
	args := make([]any, 0, len(animalIDs)+1)
	for i, id := range animalIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s IN (%s)",
		quoteIdent(a.Table), strings.Join(sets, ", "), quoteIdent(a.ID), strings.Join(placeholders, ", "),
	)
	if a.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" AND %s = $%d", quoteIdent(a.OwnerID), len(animalIDs)+1)
		args = append(args, ownerID)
	}

	_, err := t.q.ExecContext(ctx, query, args...)
	return err
}

// -------------------------
// Montagem de linhas de evento
// -------------------------

func eventSelectList(e schema.EventColumns) ([]string, map[string]int) {
	sel := make([]string, 0, 8)
	pos := map[string]int{}
	add := func(name, col string) {
		if col == "" {
			return
		}
		pos[name] = len(sel)
		sel = append(sel, quoteIdent(col))
	}
	add("id", e.ID)
	add("animal", e.AnimalID)
	add("date", e.Date)
	add("type", e.Type)
	add("details", e.Details)
	add("protocol", e.ProtocolID)
	add("application", e.ApplicationID)
	add("owner", e.OwnerID)
	return sel, pos
}

func eventFromRow(raw []any, pos map[string]int) reproduction.StageEvent {
	get := func(name string) any {
		if i, ok := pos[name]; ok {
			return raw[i]
		}
		return nil
	}

	ev := reproduction.StageEvent{
		ID:            idString(get("id")),
		AnimalID:      idString(get("animal")),
		Date:          dateString(get("date")),
		Type:          textString(get("type")),
		ProtocolID:    idString(get("protocol")),
		ApplicationID: idString(get("application")),
		OwnerID:       idString(get("owner")),
	}

	if d := get("details"); d != nil {
		var details map[string]any
		switch b := d.(type) {
		case []byte:
			_ = json.Unmarshal(b, &details)
		case string:
			_ = json.Unmarshal([]byte(b), &details)
		}
		ev.Details = details
	}
	return ev
}
