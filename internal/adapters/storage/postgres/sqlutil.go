package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"herd-reproduction/internal/platform/dates"
)

// querier é o mínimo comum entre *sql.DB e *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// quoteIdent protege nomes de coluna vindos do catálogo.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// idString normaliza um id escaneado como any (uuid texto ou serial numérico).
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case []byte:
		return string(id)
	case int64:
		return fmt.Sprintf("%d", id)
	default:
		return fmt.Sprint(id)
	}
}

// textString normaliza uma coluna de texto escaneada como any.
func textString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

// dateString normaliza uma data escaneada como any para a forma canônica:
// DATE do Postgres chega como time.Time, TEXT chega como string.
func dateString(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return dates.Format(d)
	case string:
		return clipDate(d)
	case []byte:
		return clipDate(string(d))
	default:
		return fmt.Sprint(d)
	}
}

func clipDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
