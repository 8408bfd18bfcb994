package reproduction

import "context"

// Store é a porta de armazenamento do motor. As leituras usam a conexão
// simples; as mutações passam por WithTx, que cobre a transação inteira
// (commit no retorno nil, rollback em qualquer erro).
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// ApplicationWindows devolve, por aplicação, o intervalo [min, max] das
	// datas de etapa do animal, ordenado do fim mais recente para o mais
	// antigo, limitado a limit grupos. Sem coluna de aplicação no esquema,
	// todos os eventos do animal formam um único grupo com ID vazio.
	ApplicationWindows(ctx context.Context, animalID, ownerID string, limit int) ([]Application, error)

	// LinksByProtocol agrupa os eventos de etapa do protocolo por animal,
	// com a data mínima de cada um, ordenado por essa data decrescente.
	LinksByProtocol(ctx context.Context, protocolID, ownerID string) ([]Link, error)

	StagesInPeriod(ctx context.Context, f PeriodFilter) ([]StageEvent, error)
}

// Tx são as mutações disponíveis dentro de uma transação do Store.
type Tx interface {
	// DeleteStagesFrom apaga os eventos de etapa do animal com data >= fromDate.
	DeleteStagesFrom(ctx context.Context, animalID, fromDate, ownerID string) error

	// InsertStage grava um evento e devolve-o com o id atribuído pelo armazenamento.
	InsertStage(ctx context.Context, e StageEvent) (StageEvent, error)

	// UpdateAnimalPointers grava os ponteiros do animal; no-op quando o
	// esquema não tem nenhuma das colunas alvo.
	UpdateAnimalPointers(ctx context.Context, u PointerUpdate) error

	// AnimalsWithApplication lista os animais distintos com ao menos um
	// evento da aplicação.
	AnimalsWithApplication(ctx context.Context, applicationID, ownerID string) ([]string, error)

	// DeleteApplication apaga todos os eventos que carregam a aplicação.
	DeleteApplication(ctx context.Context, applicationID, ownerID string) error

	// ClearAnimalPointers anula protocolo/aplicação atuais dos animais;
	// o status reprodutivo fica como está.
	ClearAnimalPointers(ctx context.Context, animalIDs []string, ownerID string) error
}
