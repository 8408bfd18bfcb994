package protocols

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Chaves aceitas para o deslocamento em dias de uma etapa.
var offsetKeys = []string{"day", "dia", "offset"}

// DecodeSteps aceita a lista nativa (decodificada pelo driver) ou o texto
// serializado e devolve as etapas em ordem. Falha de decodificação ou
// lista vazia viram ErrNoSteps: um protocolo sem etapas não é aplicável.
func DecodeSteps(raw any) ([]Step, error) {
	items, ok := stepItems(raw)
	if !ok || len(items) == 0 {
		return nil, ErrNoSteps
	}

	steps := make([]Step, 0, len(items))
	for i, fields := range items {
		steps = append(steps, Step{
			Offset: stepOffset(fields, i),
			Fields: fields,
		})
	}
	return steps, nil
}

func stepItems(raw any) ([]map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []byte:
		return unmarshalItems(v)
	case string:
		return unmarshalItems([]byte(v))
	case []map[string]any:
		return v, true
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, it := range v {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, false
			}
			items = append(items, m)
		}
		return items, true
	default:
		return nil, false
	}
}

func unmarshalItems(b []byte) ([]map[string]any, bool) {
	var items []map[string]any
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false
	}
	return items, true
}

// stepOffset lê o deslocamento em dias da etapa; sem valor numérico
// utilizável, o deslocamento é a própria posição na lista.
func stepOffset(fields map[string]any, index int) int {
	for _, k := range offsetKeys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i
			}
		}
	}
	return index
}
