package protocols

import (
	"encoding/json"
	"net/http"

	"herd-reproduction/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Catálogo de protocolos (somente leitura; a edição fica noutro módulo)
	r.Get("/protocols", listProtocolsHandler(svc))
}

// protocolResponse é o resumo de um protocolo no catálogo.
type protocolResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// listProtocolsHandler godoc
// @Summary Listar protocolos
// @Description Lista os protocolos reprodutivos disponíveis para aplicação. A edição de protocolos é de outro módulo. Autenticação: `X-Debug-Owner-ID` (dev) ou `Authorization: Bearer <token>` (prod); sem dono, devolve os protocolos sem escopo.
// @Tags protocols
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Success 200 {array} protocolResponse
// @Failure 500 {string} string "internal error"
// @Router /protocols [get]
func listProtocolsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.OwnerID(r.Context()))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]protocolResponse, 0, len(items))
		for _, it := range items {
			out = append(out, protocolResponse{
				ID:       it.ID,
				Name:     it.Name,
				Category: string(it.Category),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
