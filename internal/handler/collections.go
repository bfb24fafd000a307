package handler

import (
	"net/http"
	"strconv"

	"github.com/mmeshcher/cygree/internal/apperr"
)

type submitCollectionRequest struct {
	Mass     float64 `json:"mass"`
	Evidence string  `json:"evidence"`
}

// SubmitCollection принимает новую заявку на сбор пластика.
func (h *Handler) SubmitCollection(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req submitCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "submit collection", err)
		return
	}

	c, err := h.service.SubmitCollection(r.Context(), caller, req.Mass, req.Evidence)
	if err != nil {
		h.fail(w, r, "submit collection", err)
		return
	}

	writeJSON(w, http.StatusCreated, newCollectionResponse(c))
}

// GetCollections возвращает заявки текущего пользователя, сгруппированные по статусу.
func (h *Handler) GetCollections(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	groups, err := h.service.GetCollections(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get collections", err)
		return
	}

	writeJSON(w, http.StatusOK, collectionsByStatusResponse{
		Requested: newCollectionList(groups.Requested),
		Pending:   newCollectionList(groups.Pending),
		Collected: newCollectionList(groups.Collected),
	})
}

// GetAgentQueue возвращает заявки, доступные агенту. Параметр location=true включает фильтр по месту.
func (h *Handler) GetAgentQueue(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	filter := false
	if v := r.URL.Query().Get("location"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, "get agent queue", apperr.Validation("location must be true or false"))
			return
		}
		filter = b
	}

	queue, err := h.service.GetAgentQueue(r.Context(), caller, filter)
	if err != nil {
		h.fail(w, r, "get agent queue", err)
		return
	}

	writeJSON(w, http.StatusOK, agentQueueResponse{
		Requests: newCollectionList(queue.Items),
		Message:  queue.Message,
	})
}

type collectionActionRequest struct {
	RequestID int64 `json:"request_id"`
}

func (h *Handler) decodeRequestID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	var req collectionActionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, op, err)
		return 0, false
	}
	if req.RequestID <= 0 {
		h.fail(w, r, op, apperr.Validation("request_id must be positive"))
		return 0, false
	}
	return req.RequestID, true
}

// ClaimCollection закрепляет заявку за текущим агентом.
func (h *Handler) ClaimCollection(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := h.decodeRequestID(w, r, "claim collection")
	if !ok {
		return
	}

	c, err := h.service.ClaimCollection(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "claim collection", err)
		return
	}

	writeJSON(w, http.StatusOK, newCollectionResponse(c))
}

// FinalizeCollection отмечает заявку собранной.
func (h *Handler) FinalizeCollection(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := h.decodeRequestID(w, r, "finalize collection")
	if !ok {
		return
	}

	c, err := h.service.FinalizeCollection(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "finalize collection", err)
		return
	}

	writeJSON(w, http.StatusOK, newCollectionResponse(c))
}
