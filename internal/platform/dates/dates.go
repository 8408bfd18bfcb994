package dates

import (
	"errors"
	"strings"
	"time"
)

// Layout é a forma canônica usada em todo o núcleo (só data, sem hora).
const Layout = "2006-01-02"

// layoutBR é a forma regional aceita na entrada (DD/MM/AAAA).
const layoutBR = "02/01/2006"

var ErrInvalidDate = errors.New("invalid date")

// Normalize aceita AAAA-MM-DD ou DD/MM/AAAA e devolve sempre a forma canônica.
// Qualquer outro formato é rejeitado com ErrInvalidDate.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidDate
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return t.Format(Layout), nil
	}
	if t, err := time.Parse(layoutBR, s); err == nil {
		return t.Format(Layout), nil
	}
	return "", ErrInvalidDate
}

// AddDays soma n dias (pode ser negativo) a uma data canônica.
func AddDays(canonical string, n int) (string, error) {
	t, err := time.Parse(Layout, canonical)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.AddDate(0, 0, n).Format(Layout), nil
}

// Format descarta a hora e devolve a forma canônica.
func Format(t time.Time) string {
	return t.Format(Layout)
}
