package auth

// Claims é a informação extraída do token. OwnerID é o dono/tenant usado
// no escopo opcional de todas as consultas do núcleo.
type Claims struct {
	OwnerID string
	Email   string
}
