package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/validation"
)

// GetCatalog возвращает весь каталог наград.
func (s *Service) GetCatalog(ctx context.Context) ([]model.RewardEntry, error) {
	return s.repo.GetRewards(ctx)
}

// CreateReward добавляет награду в каталог. Только для администратора.
func (s *Service) CreateReward(ctx context.Context, caller model.Caller, title string, pointsRequired float64) (*model.RewardEntry, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("reward title must not be empty")
	}
	points, err := validation.Points(pointsRequired)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateReward(ctx, title, points)
}

// GetClaimableRewards возвращает награды, которые вызывающий может получить сейчас.
func (s *Service) GetClaimableRewards(ctx context.Context, caller model.Caller) ([]model.RewardEntry, error) {
	return s.repo.GetClaimableRewards(ctx, caller.ID)
}

// ClaimReward получает награду для вызывающего. Баллы при этом не списываются.
func (s *Service) ClaimReward(ctx context.Context, caller model.Caller, rewardID int64) (*model.RewardClaim, error) {
	claim, err := s.repo.ClaimReward(ctx, caller.ID, rewardID)
	if err != nil {
		if k := apperr.KindOf(err); k != nil {
			s.metrics.RewardClaim(k.Error())
		}
		return nil, err
	}

	s.metrics.RewardClaim("ok")
	return claim, nil
}

// GetRewardHistory возвращает полученные награды, новые первыми.
func (s *Service) GetRewardHistory(ctx context.Context, caller model.Caller) ([]model.RewardClaim, error) {
	return s.repo.GetRewardClaims(ctx, caller.ID)
}

// IssueIncentive выдаёт пользователю поощрение. Только для администратора.
// Баллы зачисляются, если сданная масса пользователя не меньше порога.
func (s *Service) IssueIncentive(ctx context.Context, caller model.Caller, accountID int64, amount float64, rewardType string, threshold float64) (*model.Incentive, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	amountH, err := validation.Points(amount)
	if err != nil {
		return nil, err
	}
	thresholdH, err := validation.Points(threshold)
	if err != nil {
		return nil, err
	}
	rt, err := validation.RewardType(rewardType)
	if err != nil {
		return nil, err
	}

	in, err := s.repo.IssueIncentive(ctx, accountID, amountH, rt, thresholdH)
	if err != nil {
		return nil, err
	}

	if in.Applied {
		s.notify(ctx, accountID, "You earned new incentive points", model.ImportanceHigh)
	}
	return in, nil
}

// GetIncentives возвращает поощрения вызывающего.
func (s *Service) GetIncentives(ctx context.Context, caller model.Caller) ([]model.Incentive, error) {
	return s.repo.GetIncentives(ctx, caller.ID)
}
