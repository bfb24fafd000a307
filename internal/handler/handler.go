// Package handler содержит HTTP-обработчики API сервиса cygree.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/metrics"
	"github.com/mmeshcher/cygree/internal/middleware"
	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, reg service.Registration) (*model.Account, error)
	AuthenticateUser(ctx context.Context, login, password string) (*model.Account, error)
	GetProfile(ctx context.Context, caller model.Caller) (*model.Account, error)
	UpdateProfile(ctx context.Context, caller model.Caller, upd model.ProfileUpdate) (*model.Account, error)
	DeleteAccount(ctx context.Context, caller model.Caller) error

	SubmitCollection(ctx context.Context, caller model.Caller, mass float64, evidence string) (*model.CollectionRequest, error)
	GetCollections(ctx context.Context, caller model.Caller) (model.CollectionsByStatus, error)
	GetAgentQueue(ctx context.Context, caller model.Caller, filterByLocation bool) (model.AgentQueue, error)
	ClaimCollection(ctx context.Context, caller model.Caller, requestID int64) (*model.CollectionRequest, error)
	FinalizeCollection(ctx context.Context, caller model.Caller, requestID int64) (*model.CollectionRequest, error)

	GetCatalog(ctx context.Context) ([]model.RewardEntry, error)
	CreateReward(ctx context.Context, caller model.Caller, title string, pointsRequired float64) (*model.RewardEntry, error)
	GetClaimableRewards(ctx context.Context, caller model.Caller) ([]model.RewardEntry, error)
	ClaimReward(ctx context.Context, caller model.Caller, rewardID int64) (*model.RewardClaim, error)
	GetRewardHistory(ctx context.Context, caller model.Caller) ([]model.RewardClaim, error)
	IssueIncentive(ctx context.Context, caller model.Caller, accountID int64, amount float64, rewardType string, threshold float64) (*model.Incentive, error)
	GetIncentives(ctx context.Context, caller model.Caller) ([]model.Incentive, error)

	SendNotification(ctx context.Context, caller model.Caller, to int64, message, importance string) (*model.Notification, error)
	GetNotifications(ctx context.Context, caller model.Caller) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, caller model.Caller, notificationID int64) error
}

// Options содержит необязательные параметры обработчика.
type Options struct {
	// Metrics публикуется на /metrics, если задан.
	Metrics *metrics.Metrics
	// AuthRateLimit ограничивает регистрацию и вход, запросов в секунду.
	AuthRateLimit float64
}

// Handler реализует HTTP-обработчики API сервиса cygree.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	authRateLimit  float64
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        opts.Metrics,
		authRateLimit:  opts.AuthRateLimit,
	}
}

var errMalformedBody = apperr.Validation("malformed request body")

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("empty request body")
		}
		return errMalformedBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail пишет ошибку клиенту. Ошибки вне таксономии логируются.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if middleware.StatusCode(err) == http.StatusInternalServerError {
		h.logger.Error(op+" error", zap.Error(err), zap.String("path", r.URL.Path))
	}
	middleware.WriteError(w, err)
}

func callerFrom(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	c, ok := middleware.GetCallerFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, apperr.New(apperr.ErrUnauthorized, "not authenticated"))
	}
	return c, ok
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}
