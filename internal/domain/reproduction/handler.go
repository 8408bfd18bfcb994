package reproduction

import (
	"encoding/json"
	"errors"
	"net/http"

	"herd-reproduction/internal/domain/protocols"
	"herd-reproduction/internal/domain/schema"
	"herd-reproduction/internal/middleware"
	"herd-reproduction/internal/platform/dates"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Aplicar um protocolo a uma coorte de animais
	r.Post("/protocols/{protocolID}/applications", applyHandler(svc))

	// Animais vinculados a um protocolo (todos ou só os ativos)
	r.Get("/protocols/{protocolID}/links", linksHandler(svc))

	// Cancelar uma aplicação inteira
	r.Delete("/applications/{applicationID}", cancelHandler(svc))

	// Aplicação em vigor para um animal numa data
	r.Get("/animals/{animalID}/active-application", activeApplicationHandler(svc))

	// Eventos de etapa num período (alimenta o calendário)
	r.Get("/stages", listStagesHandler(svc))
}

// applyRequest é o corpo para aplicar um protocolo.
type applyRequest struct {
	AnimalIDs []string       `json:"animal_ids"`
	StartDate string         `json:"start_date"` // AAAA-MM-DD ou DD/MM/AAAA
	Details   map[string]any `json:"details"`    // campos comuns copiados em cada etapa
}

type applyResponse struct {
	ApplicationID string          `json:"application_id"`
	Events        []stageResponse `json:"events"`
}

// stageResponse é um evento de etapa devolvido pela API.
type stageResponse struct {
	ID            string         `json:"id"`
	AnimalID      string         `json:"animal_id"`
	Date          string         `json:"date"`
	Details       map[string]any `json:"details,omitempty"`
	ProtocolID    string         `json:"protocol_id,omitempty"`
	ApplicationID string         `json:"application_id,omitempty"`
}

type cancelResponse struct {
	AffectedAnimals int `json:"affected_animals"`
}

type activeApplicationResponse struct {
	ApplicationID string `json:"application_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

type linkResponse struct {
	AnimalID string `json:"animal_id"`
	Start    string `json:"start"`
}

type linksResponse struct {
	Items []linkResponse `json:"items"`
	Meta  linksMeta      `json:"meta"`
}

type linksMeta struct {
	LastStepOffset int    `json:"last_step_offset"`
	ReferenceDate  string `json:"reference_date"`
}

// applyHandler godoc
// @Summary Aplicar protocolo a uma coorte
// @Description Aplica o protocolo aos animais a partir da data de início, numa transação única: apaga as etapas futuras de cada animal, insere as etapas novas com uma aplicação nova e atualiza os ponteiros. Reaplicar substitui, nunca duplica.
// @Tags reproduction
// @Accept json
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Param protocolID path string true "ID do protocolo"
// @Param payload body applyRequest true "Coorte, data de início e campos comuns"
// @Success 201 {object} applyResponse
// @Failure 400 {string} string "invalid json / data inválida / protocolo sem etapas / coorte vazia"
// @Failure 404 {string} string "protocol not found"
// @Failure 500 {string} string "esquema incompleto / erro de armazenamento"
// @Router /protocols/{protocolID}/applications [post]
func applyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.Apply(r.Context(), ApplyInput{
			ProtocolID: chi.URLParam(r, "protocolID"),
			AnimalIDs:  req.AnimalIDs,
			StartDate:  req.StartDate,
			Details:    req.Details,
			OwnerID:    middleware.OwnerID(r.Context()),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := applyResponse{
			ApplicationID: res.ApplicationID,
			Events:        make([]stageResponse, 0, len(res.Events)),
		}
		for _, e := range res.Events {
			out.Events = append(out.Events, toStageResponse(e))
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// cancelHandler godoc
// @Summary Cancelar uma aplicação
// @Description Desfaz a aplicação inteira: apaga todos os eventos que a carregam e anula os ponteiros dos animais atingidos. Não precisa do protocolo de origem, só do id da aplicação.
// @Tags reproduction
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Param applicationID path string true "ID da aplicação"
// @Success 200 {object} cancelResponse
// @Failure 400 {string} string "id vazio"
// @Failure 500 {string} string "esquema sem coluna de aplicação / erro de armazenamento"
// @Router /applications/{applicationID} [delete]
func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Cancel(r.Context(), chi.URLParam(r, "applicationID"), middleware.OwnerID(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cancelResponse{AffectedAnimals: res.AffectedAnimals})
	}
}

// activeApplicationHandler godoc
// @Summary Aplicação em vigor para um animal
// @Description Infere, só do fluxo de eventos, qual aplicação cobre a data de referência (hoje, se omitida). Devolve 204 quando nenhuma aplicação está em vigor.
// @Tags reproduction
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Param animalID path string true "ID do animal"
// @Param date query string false "Data de referência (AAAA-MM-DD ou DD/MM/AAAA); default hoje"
// @Success 200 {object} activeApplicationResponse
// @Success 204 {string} string "nenhuma aplicação em vigor"
// @Failure 400 {string} string "data inválida"
// @Failure 500 {string} string "internal error"
// @Router /animals/{animalID}/active-application [get]
func activeApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := svc.ResolveActive(
			r.Context(),
			chi.URLParam(r, "animalID"),
			r.URL.Query().Get("date"),
			middleware.OwnerID(r.Context()),
		)
		if err != nil {
			writeError(w, err)
			return
		}
		if app == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, activeApplicationResponse{
			ApplicationID: app.ID,
			Start:         app.Start,
			End:           app.End,
		})
	}
}

// linksHandler godoc
// @Summary Animais vinculados a um protocolo
// @Description Lista os animais que já receberam o protocolo, cada um com a data da primeira etapa, do início mais recente para o mais antigo. Com status=ATIVO filtra para os animais cujo fim calculado (início + último deslocamento) ainda não passou da data de referência.
// @Tags reproduction
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Param protocolID path string true "ID do protocolo"
// @Param status query string false "ATIVO para filtrar os vínculos em vigor"
// @Param date query string false "Data de referência (AAAA-MM-DD ou DD/MM/AAAA); default hoje"
// @Success 200 {object} linksResponse
// @Failure 400 {string} string "data inválida / protocolo sem etapas"
// @Failure 404 {string} string "protocol not found"
// @Failure 500 {string} string "internal error"
// @Router /protocols/{protocolID}/links [get]
func linksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.CollectLinks(
			r.Context(),
			chi.URLParam(r, "protocolID"),
			r.URL.Query().Get("status"),
			r.URL.Query().Get("date"),
			middleware.OwnerID(r.Context()),
		)
		if err != nil {
			writeError(w, err)
			return
		}

		out := linksResponse{
			Items: make([]linkResponse, 0, len(res.Items)),
			Meta:  linksMeta{LastStepOffset: res.LastStepOffset, ReferenceDate: res.ReferenceDate},
		}
		for _, l := range res.Items {
			out.Items = append(out.Items, linkResponse{AnimalID: l.AnimalID, Start: l.Start})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listStagesHandler godoc
// @Summary Listar etapas num período
// @Description Lista os eventos de etapa com data dentro do intervalo (qualquer extremo pode ficar aberto), opcionalmente por protocolo, em ordem de data crescente. Leitura pura; alimenta o calendário.
// @Tags reproduction
// @Produce json
// @Param X-Debug-Owner-ID header string false "Só em modo dev, dono para depuração"
// @Param Authorization header string false "Bearer token em produção"
// @Param from query string false "Data mínima (AAAA-MM-DD ou DD/MM/AAAA)"
// @Param to query string false "Data máxima (AAAA-MM-DD ou DD/MM/AAAA)"
// @Param protocol_id query string false "Filtrar por protocolo"
// @Success 200 {array} stageResponse
// @Failure 400 {string} string "data inválida"
// @Failure 500 {string} string "internal error"
// @Router /stages [get]
func listStagesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.ListStagesInPeriod(r.Context(), PeriodFilter{
			From:       q.Get("from"),
			To:         q.Get("to"),
			ProtocolID: q.Get("protocol_id"),
			OwnerID:    middleware.OwnerID(r.Context()),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]stageResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toStageResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toStageResponse(e StageEvent) stageResponse {
	return stageResponse{
		ID:            e.ID,
		AnimalID:      e.AnimalID,
		Date:          e.Date,
		Details:       e.Details,
		ProtocolID:    e.ProtocolID,
		ApplicationID: e.ApplicationID,
	}
}

// writeError mapeia a taxonomia de erros do núcleo para HTTP:
// erros do cliente em 4xx, esquema incompleto e armazenamento em 5xx.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, protocols.ErrNotFound):
		http.Error(w, "protocol not found", http.StatusNotFound)
	case errors.Is(err, protocols.ErrNoSteps),
		errors.Is(err, dates.ErrInvalidDate),
		errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, schema.ErrSchemaIncomplete):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
