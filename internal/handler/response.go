package handler

import (
	"time"

	"github.com/mmeshcher/cygree/internal/model"
)

type accountResponse struct {
	ID           int64   `json:"id"`
	Login        string  `json:"login"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Country      string  `json:"country"`
	Phone        string  `json:"phone"`
	Points       float64 `json:"points"`
	RecycledMass float64 `json:"recycled_mass"`
	CreatedAt    string  `json:"created_at"`
}

func newAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Login:        a.Login,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		Role:         string(a.Role),
		Address:      a.Location.Address,
		City:         a.Location.City,
		State:        a.Location.State,
		Country:      a.Location.Country,
		Phone:        a.Phone,
		Points:       a.Points,
		RecycledMass: a.RecycledMass,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

type collectionResponse struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"owner_id"`
	AgentID     *int64  `json:"agent_id"`
	Mass        float64 `json:"mass"`
	Evidence    string  `json:"evidence"`
	Status      string  `json:"status"`
	SubmittedAt string  `json:"submitted_at"`
	Address     string  `json:"address,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
}

func newCollectionResponse(c *model.CollectionRequest) collectionResponse {
	return collectionResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		AgentID:     c.AgentID,
		Mass:        c.Mass,
		Evidence:    c.Evidence,
		Status:      string(c.Status),
		SubmittedAt: formatTime(c.SubmittedAt),
		Address:     c.OwnerAddress,
		City:        c.OwnerCity,
		State:       c.OwnerState,
	}
}

func newCollectionList(items []model.CollectionRequest) []collectionResponse {
	resp := make([]collectionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newCollectionResponse(&items[i]))
	}
	return resp
}

type collectionsByStatusResponse struct {
	Requested []collectionResponse `json:"requested"`
	Pending   []collectionResponse `json:"pending"`
	Collected []collectionResponse `json:"collected"`
}

type agentQueueResponse struct {
	Requests []collectionResponse `json:"requests"`
	Message  string               `json:"message,omitempty"`
}

type rewardResponse struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	PointsRequired float64 `json:"points_required"`
}

func newRewardResponse(e model.RewardEntry) rewardResponse {
	return rewardResponse{ID: e.ID, Title: e.Title, PointsRequired: e.PointsRequired}
}

func newRewardList(items []model.RewardEntry) []rewardResponse {
	resp := make([]rewardResponse, 0, len(items))
	for _, e := range items {
		resp = append(resp, newRewardResponse(e))
	}
	return resp
}

type rewardClaimResponse struct {
	ID        int64          `json:"id"`
	AccountID int64          `json:"account_id"`
	Reward    rewardResponse `json:"reward"`
	ClaimedAt string         `json:"claimed_at"`
}

func newRewardClaimResponse(c *model.RewardClaim) rewardClaimResponse {
	return rewardClaimResponse{
		ID:        c.ID,
		AccountID: c.AccountID,
		Reward:    newRewardResponse(c.Reward),
		ClaimedAt: formatTime(c.ClaimedAt),
	}
}

type notificationResponse struct {
	ID         int64  `json:"id"`
	To         int64  `json:"to"`
	Message    string `json:"message"`
	Importance string `json:"importance"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
}

func newNotificationResponse(n *model.Notification) notificationResponse {
	return notificationResponse{
		ID:         n.ID,
		To:         n.AccountID,
		Message:    n.Message,
		Importance: string(n.Importance),
		Read:       n.Read,
		CreatedAt:  formatTime(n.CreatedAt),
	}
}

type incentiveResponse struct {
	ID         int64   `json:"id"`
	AccountID  int64   `json:"account_id"`
	Amount     float64 `json:"amount"`
	RewardType string  `json:"reward_type"`
	Threshold  float64 `json:"threshold"`
	Applied    bool    `json:"applied"`
	IssuedAt   string  `json:"issued_at"`
}

func newIncentiveResponse(i *model.Incentive) incentiveResponse {
	return incentiveResponse{
		ID:         i.ID,
		AccountID:  i.AccountID,
		Amount:     i.Amount,
		RewardType: string(i.Type),
		Threshold:  i.Threshold,
		Applied:    i.Applied,
		IssuedAt:   formatTime(i.IssuedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
