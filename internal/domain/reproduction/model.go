package reproduction

import "time"

// StageType é a marca fixa dos eventos derivados de protocolo no fluxo de
// eventos do animal. Tudo que o motor cria, apaga ou agrega carrega este tipo.
const StageType = "PROTOCOL_STAGE"

// DetailProtocolName é a chave de rastreabilidade gravada no payload de
// cada etapa com o nome do protocolo de origem.
const DetailProtocolName = "protocol_name"

// StageEvent é a ocorrência de uma etapa de protocolo para um animal numa
// data. Datas sempre na forma canônica AAAA-MM-DD.
type StageEvent struct {
	ID       string
	AnimalID string
	Date     string
	Type     string

	// Details mistura os campos comuns do chamador, os campos da etapa e a
	// chave de rastreabilidade, nesta ordem de precedência.
	Details map[string]any

	ProtocolID    string
	ApplicationID string
	OwnerID       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Application não tem registro próprio: existe apenas como chave
// compartilhada entre eventos. Start/End são o min/max das datas do grupo.
type Application struct {
	ID    string
	Start string
	End   string
}

// Link liga um animal a um protocolo já aplicado; Start é a data da
// primeira etapa registrada para aquele animal.
type Link struct {
	AnimalID string
	Start    string
}

// LinkList é o resultado da coleta de vínculos de um protocolo.
type LinkList struct {
	Items          []Link
	LastStepOffset int
	ReferenceDate  string
}

// PeriodFilter filtra os eventos de etapa por período; qualquer extremo
// vazio deixa o intervalo aberto daquele lado.
type PeriodFilter struct {
	From       string
	To         string
	ProtocolID string
	OwnerID    string
}

// PointerUpdate é o caché desnormalizado gravado no animal após a
// aplicação. Não é autoritativo: a resolução ativa recalcula dos eventos.
type PointerUpdate struct {
	AnimalID      string
	ReproStatus   string
	ProtocolID    string
	ApplicationID string
	OwnerID       string
	UpdatedAt     time.Time
}
