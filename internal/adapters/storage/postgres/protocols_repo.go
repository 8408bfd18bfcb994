package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"herd-reproduction/internal/domain/protocols"
	"herd-reproduction/internal/domain/schema"
)

// ProtocolsRepo lê protocolos montando o SQL a partir do mapeamento de
// colunas resolvido na inicialização. Colunas opcionais ausentes ficam
// fora do SELECT e chegam vazias no Record.
type ProtocolsRepo struct {
	db   *sql.DB
	cols schema.ProtocolColumns
}

func NewProtocolsRepo(db *sql.DB, cols schema.ProtocolColumns) *ProtocolsRepo {
	return &ProtocolsRepo{db: db, cols: cols}
}

func (r *ProtocolsRepo) GetByID(ctx context.Context, id, ownerID string) (protocols.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return protocols.Record{}, protocols.ErrNotFound
	}

	sel, pos := r.selectList()

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		strings.Join(sel, ", "), quoteIdent(r.cols.Table), quoteIdent(r.cols.ID),
	)
	args := []any{id}
	if r.cols.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" AND %s = $2", quoteIdent(r.cols.OwnerID))
		args = append(args, ownerID)
	}

	raw := make([]any, len(sel))
	ptrs := make([]any, len(sel))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return protocols.Record{}, protocols.ErrNotFound
		}
		return protocols.Record{}, err
	}

	return recordFromRow(raw, pos), nil
}

func (r *ProtocolsRepo) List(ctx context.Context, ownerID string) ([]protocols.Record, error) {
	sel, pos := r.selectList()

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(sel, ", "), quoteIdent(r.cols.Table))
	args := []any{}
	if r.cols.OwnerID != "" && ownerID != "" {
		query += fmt.Sprintf(" WHERE %s = $1", quoteIdent(r.cols.OwnerID))
		args = append(args, ownerID)
	}
	if r.cols.Name != "" {
		query += fmt.Sprintf(" ORDER BY %s", quoteIdent(r.cols.Name))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]protocols.Record, 0)
	for rows.Next() {
		raw := make([]any, len(sel))
		ptrs := make([]any, len(sel))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, recordFromRow(raw, pos))
	}
	return out, rows.Err()
}

// selectList monta a lista de colunas existentes e a posição de cada
// campo lógico dentro dela.
func (r *ProtocolsRepo) selectList() ([]string, map[string]int) {
	sel := make([]string, 0, 5)
	pos := map[string]int{}
	add := func(name, col string) {
		if col == "" {
			return
		}
		pos[name] = len(sel)
		sel = append(sel, quoteIdent(col))
	}
	add("id", r.cols.ID)
	add("name", r.cols.Name)
	add("type", r.cols.Type)
	add("steps", r.cols.Steps)
	add("owner", r.cols.OwnerID)
	return sel, pos
}

func recordFromRow(raw []any, pos map[string]int) protocols.Record {
	get := func(name string) any {
		if i, ok := pos[name]; ok {
			return raw[i]
		}
		return nil
	}
	return protocols.Record{
		ID:      idString(get("id")),
		Name:    textString(get("name")),
		Type:    textString(get("type")),
		Steps:   get("steps"),
		OwnerID: idString(get("owner")),
	}
}
