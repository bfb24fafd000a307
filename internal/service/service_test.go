package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/metrics"
	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/repository"
	"github.com/mmeshcher/cygree/internal/workflow"
)

// memRepo реализует хранилище в памяти с теми же гарантиями, что и PostgreSQL-репозиторий:
// переходы под блокировкой и уникальность пары (пользователь, награда).
type memRepo struct {
	mu sync.Mutex

	nextID        int64
	accounts      map[int64]*model.Account
	collections   map[int64]*model.CollectionRequest
	rewards       map[int64]model.RewardEntry
	claims        []model.RewardClaim
	notifications []model.Notification
	incentives    []model.Incentive
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts:    map[int64]*model.Account{},
		collections: map[int64]*model.CollectionRequest{},
		rewards:     map[int64]model.RewardEntry{},
	}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) CreateAccount(ctx context.Context, a model.Account) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.accounts {
		if ex.Login == a.Login {
			return 0, repository.ErrAccountExists
		}
	}
	a.ID = m.id()
	m.accounts[a.ID] = &a
	return a.ID, nil
}

func (m *memRepo) GetAccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Login == login {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memRepo) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.Location.Address, upd.Address)
	set(&a.Location.City, upd.City)
	set(&a.Location.State, upd.State)
	set(&a.Location.Country, upd.Country)
	set(&a.Phone, upd.Phone)
	cp := *a
	return &cp, nil
}

func (m *memRepo) DeleteAccount(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(m.accounts, id)
	for cid, c := range m.collections {
		if c.OwnerID == id {
			delete(m.collections, cid)
		}
	}
	return nil
}

func (m *memRepo) withOwner(c model.CollectionRequest) model.CollectionRequest {
	if o, ok := m.accounts[c.OwnerID]; ok {
		c.OwnerCity = o.Location.City
		c.OwnerState = o.Location.State
		c.OwnerAddress = o.Location.Address
	}
	return c
}

func (m *memRepo) CreateCollection(ctx context.Context, ownerID, massHundredths int64, evidence string) (*model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[ownerID]; !ok {
		return nil, repository.ErrAccountNotFound
	}
	c := model.CollectionRequest{
		ID:          m.id(),
		OwnerID:     ownerID,
		Mass:        float64(massHundredths) / 100,
		Evidence:    evidence,
		Status:      model.CollectionRequested,
		SubmittedAt: time.Now(),
	}
	m.collections[c.ID] = &c
	res := m.withOwner(c)
	return &res, nil
}

func (m *memRepo) sortedCollections(keep func(model.CollectionRequest) bool) []model.CollectionRequest {
	res := []model.CollectionRequest{}
	for _, c := range m.collections {
		if keep(*c) {
			res = append(res, m.withOwner(*c))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (m *memRepo) GetCollectionsByOwner(ctx context.Context, ownerID int64) ([]model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedCollections(func(c model.CollectionRequest) bool { return c.OwnerID == ownerID }), nil
}

func (m *memRepo) GetRequestedCollections(ctx context.Context) ([]model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedCollections(func(c model.CollectionRequest) bool { return c.Status == model.CollectionRequested }), nil
}

func (m *memRepo) ClaimCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[requestID]
	if !ok {
		return nil, repository.ErrCollectionNotFound
	}
	next, err := workflow.Claim(*c, agentID)
	if err != nil {
		return nil, err
	}
	*c = next
	return &next, nil
}

func (m *memRepo) FinalizeCollection(ctx context.Context, agentID, requestID int64) (*model.CollectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[requestID]
	if !ok {
		return nil, repository.ErrCollectionNotFound
	}
	next, err := workflow.Finalize(*c, agentID)
	if err != nil {
		return nil, err
	}
	*c = next
	m.accounts[next.OwnerID].RecycledMass += next.Mass
	return &next, nil
}

func (m *memRepo) CreateReward(ctx context.Context, title string, pointsRequired int64) (*model.RewardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := model.RewardEntry{ID: m.id(), Title: title, PointsRequired: float64(pointsRequired) / 100}
	m.rewards[e.ID] = e
	return &e, nil
}

func (m *memRepo) GetRewards(ctx context.Context) ([]model.RewardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []model.RewardEntry{}
	for _, e := range m.rewards {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memRepo) claimed(accountID, rewardID int64) bool {
	for _, c := range m.claims {
		if c.AccountID == accountID && c.Reward.ID == rewardID {
			return true
		}
	}
	return false
}

func (m *memRepo) GetClaimableRewards(ctx context.Context, accountID int64) ([]model.RewardEntry, error) {
	all, _ := m.GetRewards(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return []model.RewardEntry{}, nil
	}
	res := []model.RewardEntry{}
	for _, e := range all {
		if e.PointsRequired <= a.Points && !m.claimed(accountID, e.ID) {
			res = append(res, e)
		}
	}
	return res, nil
}

func (m *memRepo) ClaimReward(ctx context.Context, accountID, rewardID int64) (*model.RewardClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rewards[rewardID]
	if !ok {
		return nil, repository.ErrRewardNotFound
	}
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if a.Points < e.PointsRequired {
		return nil, repository.ErrInsufficientPoints
	}
	if m.claimed(accountID, rewardID) {
		return nil, repository.ErrAlreadyClaimed
	}
	c := model.RewardClaim{ID: m.id(), AccountID: accountID, Reward: e, ClaimedAt: time.Now()}
	m.claims = append(m.claims, c)
	return &c, nil
}

func (m *memRepo) GetRewardClaims(ctx context.Context, accountID int64) ([]model.RewardClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []model.RewardClaim{}
	for i := len(m.claims) - 1; i >= 0; i-- {
		if m.claims[i].AccountID == accountID {
			res = append(res, m.claims[i])
		}
	}
	return res, nil
}

func (m *memRepo) CreateNotification(ctx context.Context, accountID int64, message string, importance model.Importance) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; !ok {
		return nil, repository.ErrAccountNotFound
	}
	n := model.Notification{ID: m.id(), AccountID: accountID, Message: message, Importance: importance, CreatedAt: time.Now()}
	m.notifications = append(m.notifications, n)
	return &n, nil
}

func (m *memRepo) GetNotifications(ctx context.Context, accountID int64) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []model.Notification{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].AccountID == accountID {
			res = append(res, m.notifications[i])
		}
	}
	return res, nil
}

func (m *memRepo) MarkNotificationRead(ctx context.Context, accountID, notificationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == notificationID && m.notifications[i].AccountID == accountID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func (m *memRepo) IssueIncentive(ctx context.Context, accountID, amount int64, rewardType model.RewardType, threshold int64) (*model.Incentive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	in := model.Incentive{
		ID:        m.id(),
		AccountID: accountID,
		Amount:    float64(amount) / 100,
		Type:      rewardType,
		Threshold: float64(threshold) / 100,
		IssuedAt:  time.Now(),
	}
	if a.RecycledMass >= in.Threshold {
		in.Applied = true
		a.Points += in.Amount
	}
	m.incentives = append(m.incentives, in)
	return &in, nil
}

func (m *memRepo) GetIncentives(ctx context.Context, accountID int64) ([]model.Incentive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []model.Incentive{}
	for i := len(m.incentives) - 1; i >= 0; i-- {
		if m.incentives[i].AccountID == accountID {
			res = append(res, m.incentives[i])
		}
	}
	return res, nil
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	admin model.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	svc := NewService(repo, nil, metrics.New())

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "admin-pass"))
	admin, err := repo.GetAccountByLogin(context.Background(), "admin")
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, admin: model.Caller{ID: admin.ID, Role: model.RoleAdmin}}
}

func (f *fixture) register(t *testing.T, login, role string) model.Caller {
	t.Helper()
	a, err := f.svc.RegisterUser(context.Background(), Registration{Login: login, Password: "secret", Role: role})
	require.NoError(t, err)
	return model.Caller{ID: a.ID, Role: a.Role}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.RegisterUser(ctx, Registration{Login: " alice ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, a.Role)
	assert.Equal(t, "alice", a.Login)
	assert.NoError(t, bcrypt.CompareHashAndPassword(a.PasswordHash, []byte("secret")))

	_, err = f.svc.RegisterUser(ctx, Registration{Login: "alice", Password: "other"})
	assert.ErrorIs(t, err, repository.ErrAccountExists)

	_, err = f.svc.RegisterUser(ctx, Registration{Login: "mallory", Password: "x", Role: "Admin"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.svc.AuthenticateUser(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.svc.AuthenticateUser(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.AuthenticateUser(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "admin", "admin-pass"))

	f.register(t, "bob", "")
	assert.Error(t, f.svc.EnsureAdmin(ctx, "bob", "whatever"))
}

func TestSubmitCollectionValidation(t *testing.T) {
	f := newFixture(t)
	client := f.register(t, "client", "Client")

	_, err := f.svc.SubmitCollection(context.Background(), client, 0, "photo.jpg")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SubmitCollection(context.Background(), client, -3, "photo.jpg")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCollectionWorkflowExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.register(t, "client", "Client")
	agent := f.register(t, "agent", "Agent")

	req, err := f.svc.SubmitCollection(ctx, client, 5, "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, model.CollectionRequested, req.Status)

	_, err = f.svc.ClaimCollection(ctx, client, req.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "clients cannot claim requests")

	claimed, err := f.svc.ClaimCollection(ctx, agent, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectionPending, claimed.Status)

	done, err := f.svc.FinalizeCollection(ctx, agent, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CollectionCollected, done.Status)

	// повторное завершение не должно учитывать массу дважды
	_, err = f.svc.FinalizeCollection(ctx, agent, req.ID)
	assert.ErrorIs(t, err, apperr.ErrState)

	acc, err := f.svc.GetProfile(ctx, client)
	require.NoError(t, err)
	assert.InDelta(t, 5.00, acc.RecycledMass, 0.0001)
	assert.Zero(t, acc.Points)

	grouped, err := f.svc.GetCollections(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, grouped.Requested)
	assert.Empty(t, grouped.Pending)
	require.Len(t, grouped.Collected, 1)

	notes, err := f.svc.GetNotifications(ctx, client)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	_, err = f.svc.ClaimCollection(ctx, agent, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRewardsExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.register(t, "client", "Client")

	ten, err := f.svc.CreateReward(ctx, f.admin, "Voucher", 10)
	require.NoError(t, err)
	free, err := f.svc.CreateReward(ctx, f.admin, "Sticker", 0)
	require.NoError(t, err)

	_, err = f.svc.CreateReward(ctx, client, "Hack", 0)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	claimable, err := f.svc.GetClaimableRewards(ctx, client)
	require.NoError(t, err)
	require.Len(t, claimable, 1)
	assert.Equal(t, free.ID, claimable[0].ID)

	_, err = f.svc.ClaimReward(ctx, client, ten.ID)
	assert.ErrorIs(t, err, apperr.ErrInsufficientPoints)

	_, err = f.svc.ClaimReward(ctx, client, free.ID)
	require.NoError(t, err)

	_, err = f.svc.ClaimReward(ctx, client, free.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyClaimed)

	claimable, err = f.svc.GetClaimableRewards(ctx, client)
	require.NoError(t, err)
	assert.Empty(t, claimable, "claimed entries never reappear")

	history, err := f.svc.GetRewardHistory(ctx, client)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, free.ID, history[0].Reward.ID)
}

func TestConcurrentRewardClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.register(t, "client", "Client")

	free, err := f.svc.CreateReward(ctx, f.admin, "Sticker", 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ClaimReward(ctx, client, free.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrAlreadyClaimed)
	}
	assert.Equal(t, 1, ok)

	history, err := f.svc.GetRewardHistory(ctx, client)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestIncentivesUnlockRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.register(t, "client", "Client")
	agent := f.register(t, "agent", "Agent")

	voucher, err := f.svc.CreateReward(ctx, f.admin, "Voucher", 10)
	require.NoError(t, err)

	in, err := f.svc.IssueIncentive(ctx, f.admin, client.ID, 10, "Cash", 5)
	require.NoError(t, err)
	assert.False(t, in.Applied, "threshold not reached yet")

	req, err := f.svc.SubmitCollection(ctx, client, 5, "")
	require.NoError(t, err)
	_, err = f.svc.ClaimCollection(ctx, agent, req.ID)
	require.NoError(t, err)
	_, err = f.svc.FinalizeCollection(ctx, agent, req.ID)
	require.NoError(t, err)

	in, err = f.svc.IssueIncentive(ctx, f.admin, client.ID, 10, "Cash", 5)
	require.NoError(t, err)
	assert.True(t, in.Applied)

	_, err = f.svc.IssueIncentive(ctx, agent, client.ID, 10, "Cash", 0)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.IssueIncentive(ctx, f.admin, client.ID, 10, "Crypto", 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	claim, err := f.svc.ClaimReward(ctx, client, voucher.ID)
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, claim.Reward.ID)

	acc, err := f.svc.GetProfile(ctx, client)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, acc.Points, 0.0001, "claims do not deduct points")

	list, err := f.svc.GetIncentives(ctx, client)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAgentQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pune := f.register(t, "pune", "Client")
	city := "Pune"
	_, err := f.svc.UpdateProfile(ctx, pune, model.ProfileUpdate{City: &city})
	require.NoError(t, err)

	other := f.register(t, "other", "Client")

	_, err = f.svc.SubmitCollection(ctx, pune, 1, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitCollection(ctx, other, 2, "")
	require.NoError(t, err)

	agent := f.register(t, "agent", "Agent")

	q, err := f.svc.GetAgentQueue(ctx, agent, true)
	require.NoError(t, err)
	assert.Empty(t, q.Items)
	assert.Equal(t, workflow.NoLocationMessage, q.Message)

	q, err = f.svc.GetAgentQueue(ctx, agent, false)
	require.NoError(t, err)
	assert.Len(t, q.Items, 2)

	lower := "pune"
	_, err = f.svc.UpdateProfile(ctx, agent, model.ProfileUpdate{City: &lower})
	require.NoError(t, err)

	q, err = f.svc.GetAgentQueue(ctx, agent, true)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	assert.Equal(t, pune.ID, q.Items[0].OwnerID)

	_, err = f.svc.GetAgentQueue(ctx, pune, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.register(t, "client", "Client")

	n, err := f.svc.SendNotification(ctx, f.admin, client.ID, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, model.ImportanceLow, n.Importance)
	assert.False(t, n.Read)

	_, err = f.svc.SendNotification(ctx, f.admin, client.ID, "  ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SendNotification(ctx, f.admin, 424242, "hello", "High")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.svc.MarkNotificationRead(ctx, client, n.ID))
	require.NoError(t, f.svc.MarkNotificationRead(ctx, client, n.ID))

	err = f.svc.MarkNotificationRead(ctx, client, 424242)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	list, err := f.svc.GetNotifications(ctx, client)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.register(t, "client", "Client")

	require.NoError(t, f.svc.DeleteAccount(ctx, client))
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, client), apperr.ErrNotFound)

	_, err := f.svc.GetProfile(ctx, client)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
