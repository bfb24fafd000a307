// Package workflow содержит чистые функции переходов заявки на сбор пластика.
// Пакет не зависит от хранилища: репозиторий применяет эти функции внутри транзакции.
package workflow

import (
	"strings"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
)

// NoLocationMessage возвращается агенту без заполненного города и региона.
const NoLocationMessage = "set city or state in your profile to see nearby requests"

var next = map[model.CollectionStatus]model.CollectionStatus{
	model.CollectionRequested: model.CollectionPending,
	model.CollectionPending:   model.CollectionCollected,
}

// CanTransition сообщает, допустим ли переход from -> to.
// Допустим только шаг вперёд: Requested -> Pending -> Collected.
func CanTransition(from, to model.CollectionStatus) bool {
	n, ok := next[from]
	return ok && n == to
}

// Claim переводит заявку Requested -> Pending и закрепляет её за агентом.
func Claim(req model.CollectionRequest, agentID int64) (model.CollectionRequest, error) {
	if !CanTransition(req.Status, model.CollectionPending) {
		return req, apperr.State("request %d is %s, expected %s", req.ID, req.Status, model.CollectionRequested)
	}

	id := agentID
	req.AgentID = &id
	req.Status = model.CollectionPending
	return req, nil
}

// Finalize переводит заявку Pending -> Collected. Завершить может только закреплённый агент.
func Finalize(req model.CollectionRequest, agentID int64) (model.CollectionRequest, error) {
	if !CanTransition(req.Status, model.CollectionCollected) {
		return req, apperr.State("request %d is %s, expected %s", req.ID, req.Status, model.CollectionPending)
	}
	if req.AgentID == nil || *req.AgentID != agentID {
		return req, apperr.State("request %d is assigned to another agent", req.ID)
	}

	req.Status = model.CollectionCollected
	return req, nil
}

// GroupByStatus раскладывает заявки владельца по статусам, сохраняя порядок.
func GroupByStatus(items []model.CollectionRequest) model.CollectionsByStatus {
	res := model.CollectionsByStatus{
		Requested: []model.CollectionRequest{},
		Pending:   []model.CollectionRequest{},
		Collected: []model.CollectionRequest{},
	}
	for _, it := range items {
		switch it.Status {
		case model.CollectionRequested:
			res.Requested = append(res.Requested, it)
		case model.CollectionPending:
			res.Pending = append(res.Pending, it)
		case model.CollectionCollected:
			res.Collected = append(res.Collected, it)
		}
	}
	return res
}

// FilterByLocation оставляет заявки, у владельцев которых город или регион
// содержат город или регион агента (без учёта регистра).
// Если у агента не указаны ни город, ни регион, возвращается пустой список с пояснением.
func FilterByLocation(agent model.Location, items []model.CollectionRequest) model.AgentQueue {
	city := strings.ToLower(strings.TrimSpace(agent.City))
	state := strings.ToLower(strings.TrimSpace(agent.State))

	if city == "" && state == "" {
		return model.AgentQueue{Items: []model.CollectionRequest{}, Message: NoLocationMessage}
	}

	res := make([]model.CollectionRequest, 0, len(items))
	for _, it := range items {
		if city != "" && strings.Contains(strings.ToLower(it.OwnerCity), city) {
			res = append(res, it)
			continue
		}
		if state != "" && strings.Contains(strings.ToLower(it.OwnerState), state) {
			res = append(res, it)
		}
	}
	return model.AgentQueue{Items: res}
}
