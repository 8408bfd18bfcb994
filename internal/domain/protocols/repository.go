package protocols

import "context"

type Repository interface {
	// GetByID busca a linha crua do protocolo; ownerID vazio = sem escopo de dono.
	GetByID(ctx context.Context, id, ownerID string) (Record, error)
	List(ctx context.Context, ownerID string) ([]Record, error)
}
