// Package service реализует бизнес-логику сервиса cygree.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/metrics"
	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/policy"
	"github.com/mmeshcher/cygree/internal/repository"
	"github.com/mmeshcher/cygree/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateAccount(ctx context.Context, a model.Account) (int64, error)
	GetAccountByLogin(ctx context.Context, login string) (*model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreateCollection(ctx context.Context, ownerID, massHundredths int64, evidence string) (*model.CollectionRequest, error)
	GetCollectionsByOwner(ctx context.Context, ownerID int64) ([]model.CollectionRequest, error)
	GetRequestedCollections(ctx context.Context) ([]model.CollectionRequest, error)
	ClaimCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error)
	FinalizeCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error)

	CreateReward(ctx context.Context, title string, pointsRequired int64) (*model.RewardEntry, error)
	GetRewards(ctx context.Context) ([]model.RewardEntry, error)
	GetClaimableRewards(ctx context.Context, accountID int64) ([]model.RewardEntry, error)
	ClaimReward(ctx context.Context, accountID, rewardID int64) (*model.RewardClaim, error)
	GetRewardClaims(ctx context.Context, accountID int64) ([]model.RewardClaim, error)

	CreateNotification(ctx context.Context, accountID int64, message string, importance model.Importance) (*model.Notification, error)
	GetNotifications(ctx context.Context, accountID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error

	IssueIncentive(ctx context.Context, accountID, amount int64, rewardType model.RewardType, threshold int64) (*model.Incentive, error)
	GetIncentives(ctx context.Context, accountID int64) ([]model.Incentive, error)
}

// ErrInvalidCredentials возвращается при неверном логине или пароле.
var ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid credentials")

// Service содержит бизнес-логику сервиса cygree.
type Service struct {
	repo    Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService создаёт новый сервис. metrics может быть nil.
func NewService(repo Repository, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Registration содержит данные для регистрации пользователя.
type Registration struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// RegisterUser регистрирует нового пользователя в роли Client или Agent.
func (s *Service) RegisterUser(ctx context.Context, reg Registration) (*model.Account, error) {
	if err := validation.Credentials(reg.Login, reg.Password); err != nil {
		return nil, err
	}
	role, err := validation.RegistrationRole(reg.Role)
	if err != nil {
		return nil, err
	}

	return s.createAccount(ctx, model.Account{
		Login:     strings.TrimSpace(reg.Login),
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Role:      role,
	}, reg.Password)
}

func (s *Service) createAccount(ctx context.Context, a model.Account, password string) (*model.Account, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash

	id, err := s.repo.CreateAccount(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// EnsureAdmin создаёт администратора с указанным логином, если его ещё нет.
func (s *Service) EnsureAdmin(ctx context.Context, login, password string) error {
	if err := validation.Credentials(login, password); err != nil {
		return err
	}

	a, err := s.repo.GetAccountByLogin(ctx, login)
	if err == nil {
		if a.Role != model.RoleAdmin {
			return fmt.Errorf("account %q exists and is not an admin", login)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return err
	}

	_, err = s.createAccount(ctx, model.Account{Login: login, Role: model.RoleAdmin}, password)
	if errors.Is(err, repository.ErrAccountExists) {
		return nil
	}
	return err
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его учётную запись.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (*model.Account, error) {
	a, err := s.repo.GetAccountByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// GetProfile возвращает профиль вызывающего.
func (s *Service) GetProfile(ctx context.Context, caller model.Caller) (*model.Account, error) {
	return s.repo.GetAccount(ctx, caller.ID)
}

// UpdateProfile изменяет профиль вызывающего.
func (s *Service) UpdateProfile(ctx context.Context, caller model.Caller, upd model.ProfileUpdate) (*model.Account, error) {
	return s.repo.UpdateProfile(ctx, caller.ID, upd)
}

// DeleteAccount удаляет учётную запись вызывающего и все зависимые данные.
func (s *Service) DeleteAccount(ctx context.Context, caller model.Caller) error {
	return s.repo.DeleteAccount(ctx, caller.ID)
}

// notify отправляет служебное уведомление. Ошибка только логируется.
func (s *Service) notify(ctx context.Context, to int64, message string, importance model.Importance) {
	if _, err := s.repo.CreateNotification(ctx, to, message, importance); err != nil {
		s.logger.Warn("send notification error", zap.Error(err), zap.Int64("to", to))
	}
}

func requireAdmin(caller model.Caller) error {
	return policy.RequireRole(caller, model.RoleAdmin)
}

func requireAgent(caller model.Caller) error {
	return policy.RequireRole(caller, model.RoleAgent)
}
