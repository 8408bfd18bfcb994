package protocols

import "strings"

// Category agrupa os eventos derivados e vira o status reprodutivo do
// animal quando o protocolo é aplicado.
// @Enum IATF, Pré-sincronização
type Category string

const (
	CategoryIATF    Category = "IATF"
	CategoryPreSync Category = "Pré-sincronização"
)

// DeriveCategory deriva a categoria do tipo declarado do protocolo.
// Só "IATF" (qualquer caixa) é IATF; todo o resto cai na pré-sincronização.
func DeriveCategory(declaredType string) Category {
	if strings.EqualFold(strings.TrimSpace(declaredType), string(CategoryIATF)) {
		return CategoryIATF
	}
	return CategoryPreSync
}

// Step é uma etapa do protocolo: deslocamento em dias a partir da data de
// início mais campos livres (hormônio, ação, detalhe) que o motor copia
// tal qual para os eventos gerados.
type Step struct {
	Offset int
	Fields map[string]any
}

// Protocol é somente leitura para este núcleo; a edição acontece em outro módulo.
type Protocol struct {
	ID       string
	Name     string
	Type     string
	Category Category
	Steps    []Step
}

// LastStepOffset devolve o maior deslocamento entre as etapas, com piso 0.
// Define a duração total usada no filtro de vínculos ativos.
func (p Protocol) LastStepOffset() int {
	last := 0
	for _, s := range p.Steps {
		if s.Offset > last {
			last = s.Offset
		}
	}
	return last
}

// Record é a linha crua vinda do armazenamento; Steps pode ser a lista
// nativa já decodificada ou o texto serializado.
type Record struct {
	ID      string
	Name    string
	Type    string
	Steps   any
	OwnerID string
}

// Summary é a visão de listagem (catálogo de protocolos).
type Summary struct {
	ID       string
	Name     string
	Category Category
}
