// Package model содержит доменные сущности сервиса cygree.
package model

import "time"

// Role описывает роль пользователя в системе.
type Role string

const (
	RoleClient Role = "Client"
	RoleAgent  Role = "Agent"
	RoleAdmin  Role = "Admin"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Account представляет зарегистрированного пользователя и его профиль.
type Account struct {
	ID           int64
	Login        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Email        string
	Role         Role
	Location     Location
	Phone        string
	// Points содержит накопленные баллы. Баллы не списываются при получении награды.
	Points float64
	// RecycledMass хранит суммарную массу сданного пластика в килограммах и только растёт.
	RecycledMass float64
	CreatedAt    time.Time
}

// Location содержит адресные данные профиля.
type Location struct {
	Address string
	City    string
	State   string
	Country string
}

// ProfileUpdate содержит изменяемые поля профиля. Nil означает «не менять».
type ProfileUpdate struct {
	Address *string
	City    *string
	State   *string
	Country *string
	Phone   *string
}

// CollectionStatus описывает состояние заявки на сбор пластика.
type CollectionStatus string

const (
	CollectionRequested CollectionStatus = "Requested"
	CollectionPending   CollectionStatus = "Pending"
	CollectionCollected CollectionStatus = "Collected"
)

// CollectionRequest описывает одну партию пластика, сданную на переработку.
type CollectionRequest struct {
	ID      int64
	OwnerID int64
	// AgentID пуст, пока заявку не взял агент.
	AgentID      *int64
	Mass         float64
	Evidence     string
	Status       CollectionStatus
	SubmittedAt  time.Time
	OwnerCity    string
	OwnerState   string
	OwnerAddress string
}

// CollectionsByStatus группирует заявки владельца по статусу.
type CollectionsByStatus struct {
	Requested []CollectionRequest
	Pending   []CollectionRequest
	Collected []CollectionRequest
}

// AgentQueue описывает очередь доступных агенту заявок.
// Message заполняется, когда список пуст по причине, которую стоит объяснить пользователю.
type AgentQueue struct {
	Items   []CollectionRequest
	Message string
}

// RewardEntry описывает позицию каталога наград.
type RewardEntry struct {
	ID             int64
	Title          string
	PointsRequired float64
}

// RewardClaim фиксирует получение награды пользователем.
type RewardClaim struct {
	ID        int64
	AccountID int64
	Reward    RewardEntry
	ClaimedAt time.Time
}

// Importance задаёт уровень важности уведомления.
type Importance string

const (
	ImportanceLow    Importance = "Low"
	ImportanceMedium Importance = "Medium"
	ImportanceHigh   Importance = "High"
)

// Notification описывает сообщение, адресованное пользователю.
type Notification struct {
	ID         int64
	AccountID  int64
	Message    string
	Importance Importance
	Read       bool
	CreatedAt  time.Time
}

// RewardType задаёт тип поощрения.
type RewardType string

const (
	RewardGiftCoupon RewardType = "GiftCoupon"
	RewardCash       RewardType = "Cash"
	RewardOffer      RewardType = "Offer"
)

// Incentive описывает начисление баллов за достижение порога сданной массы.
type Incentive struct {
	ID        int64
	AccountID int64
	Amount    float64
	Type      RewardType
	Threshold float64
	// Applied показывает, были ли баллы зачислены в момент выдачи.
	Applied  bool
	IssuedAt time.Time
}

// Caller содержит идентичность того, кто выполняет запрос.
type Caller struct {
	ID   int64
	Role Role
}
