package handler

import "net/http"

// GetCatalog возвращает весь каталог наград.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetCatalog(r.Context())
	if err != nil {
		h.fail(w, r, "get catalog", err)
		return
	}

	writeJSON(w, http.StatusOK, newRewardList(items))
}

// GetClaimableRewards возвращает награды, доступные текущему пользователю.
func (h *Handler) GetClaimableRewards(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.GetClaimableRewards(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get claimable rewards", err)
		return
	}

	writeJSON(w, http.StatusOK, newRewardList(items))
}

// ClaimReward выдаёт награду текущему пользователю.
func (h *Handler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	rewardID, err := pathID(r, "rewardID")
	if err != nil {
		h.fail(w, r, "claim reward", err)
		return
	}

	claim, err := h.service.ClaimReward(r.Context(), caller, rewardID)
	if err != nil {
		h.fail(w, r, "claim reward", err)
		return
	}

	writeJSON(w, http.StatusCreated, newRewardClaimResponse(claim))
}

// GetRewardHistory возвращает полученные награды, новые первыми.
func (h *Handler) GetRewardHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	claims, err := h.service.GetRewardHistory(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get reward history", err)
		return
	}

	resp := make([]rewardClaimResponse, 0, len(claims))
	for i := range claims {
		resp = append(resp, newRewardClaimResponse(&claims[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createRewardRequest struct {
	Title          string  `json:"title"`
	PointsRequired float64 `json:"points_required"`
}

// CreateReward добавляет позицию в каталог наград.
func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req createRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "create reward", err)
		return
	}

	e, err := h.service.CreateReward(r.Context(), caller, req.Title, req.PointsRequired)
	if err != nil {
		h.fail(w, r, "create reward", err)
		return
	}

	writeJSON(w, http.StatusCreated, newRewardResponse(*e))
}

type issueIncentiveRequest struct {
	AccountID  int64   `json:"account_id"`
	Amount     float64 `json:"amount"`
	RewardType string  `json:"reward_type"`
	Threshold  float64 `json:"threshold"`
}

// IssueIncentive выдаёт поощрение пользователю.
func (h *Handler) IssueIncentive(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req issueIncentiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, "issue incentive", err)
		return
	}

	inc, err := h.service.IssueIncentive(r.Context(), caller, req.AccountID, req.Amount, req.RewardType, req.Threshold)
	if err != nil {
		h.fail(w, r, "issue incentive", err)
		return
	}

	writeJSON(w, http.StatusCreated, newIncentiveResponse(inc))
}

// GetIncentives возвращает поощрения текущего пользователя.
func (h *Handler) GetIncentives(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.GetIncentives(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "get incentives", err)
		return
	}

	resp := make([]incentiveResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newIncentiveResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
