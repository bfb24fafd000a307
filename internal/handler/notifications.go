package handler

import "net/http"

type sendNotificationRequest struct {
	To         int64  `json:"to"`
	Message    string `json:"message"`
	Importance string `json:"importance"`
}

// SendNotification отправляет уведомление указанному пользователю.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req sendNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "send notification", err)
		return
	}

	n, err := h.service.SendNotification(r.Context(), caller, req.To, req.Message, req.Importance)
	if err != nil {
		h.fail(w, r, "send notification", err)
		return
	}

	writeJSON(w, http.StatusCreated, newNotificationResponse(n))
}

// GetNotifications возвращает уведомления текущего пользователя.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.GetNotifications(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get notifications", err)
		return
	}

	resp := make([]notificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newNotificationResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkNotificationRead помечает уведомление прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "notificationID")
	if err != nil {
		h.fail(w, r, "mark notification read", err)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), caller, id); err != nil {
		h.fail(w, r, "mark notification read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
