package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/validation"
	"github.com/mmeshcher/cygree/internal/workflow"
)

// SubmitCollection создаёт заявку на сбор пластика от имени вызывающего.
func (s *Service) SubmitCollection(ctx context.Context, caller model.Caller, mass float64, evidence string) (*model.CollectionRequest, error) {
	massH, err := validation.Mass(mass)
	if err != nil {
		return nil, err
	}

	req, err := s.repo.CreateCollection(ctx, caller.ID, massH, evidence)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(model.CollectionRequested))
	return req, nil
}

// GetCollections возвращает заявки вызывающего, сгруппированные по статусу.
func (s *Service) GetCollections(ctx context.Context, caller model.Caller) (model.CollectionsByStatus, error) {
	items, err := s.repo.GetCollectionsByOwner(ctx, caller.ID)
	if err != nil {
		return model.CollectionsByStatus{}, err
	}
	return workflow.GroupByStatus(items), nil
}

// GetAgentQueue возвращает заявки, которые агент может взять.
// При filterByLocation список сужается до города или региона агента.
func (s *Service) GetAgentQueue(ctx context.Context, caller model.Caller, filterByLocation bool) (model.AgentQueue, error) {
	if err := requireAgent(caller); err != nil {
		return model.AgentQueue{}, err
	}

	var agent *model.Account
	if filterByLocation {
		a, err := s.repo.GetAccount(ctx, caller.ID)
		if err != nil {
			return model.AgentQueue{}, err
		}
		agent = a
	}

	items, err := s.repo.GetRequestedCollections(ctx)
	if err != nil {
		return model.AgentQueue{}, err
	}

	if agent == nil {
		return model.AgentQueue{Items: items}, nil
	}
	return workflow.FilterByLocation(agent.Location, items), nil
}

// ClaimCollection закрепляет заявку за агентом-вызывающим.
func (s *Service) ClaimCollection(ctx context.Context, caller model.Caller, requestID int64) (*model.CollectionRequest, error) {
	if err := requireAgent(caller); err != nil {
		return nil, err
	}

	req, err := s.repo.ClaimCollection(ctx, caller.ID, requestID)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(req.Status))
	s.notify(ctx, req.OwnerID,
		fmt.Sprintf("Your collection request #%d was accepted by an agent", req.ID),
		model.ImportanceMedium)

	return req, nil
}

// FinalizeCollection отмечает заявку собранной и увеличивает сданную массу владельца.
func (s *Service) FinalizeCollection(ctx context.Context, caller model.Caller, requestID int64) (*model.CollectionRequest, error) {
	if err := requireAgent(caller); err != nil {
		return nil, err
	}

	req, err := s.repo.FinalizeCollection(ctx, caller.ID, requestID)
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(req.Status))
	s.metrics.Recycled(req.Mass)
	s.notify(ctx, req.OwnerID,
		fmt.Sprintf("%.2f kg from request #%d were collected", req.Mass, req.ID),
		model.ImportanceMedium)

	return req, nil
}
