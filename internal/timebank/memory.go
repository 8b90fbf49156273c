package timebank

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Atomic applies the transaction to a
// clone of the current state and swaps it in on success, so a failed
// transaction leaves no trace. A single mutex serializes writers.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

type memState struct {
	nextUserID    uint64
	nextSkillID   uint64
	nextServiceID uint64
	nextDisputeID uint64

	users        map[uint64]User
	byIdentity   map[string]uint64
	skills       map[uint64]SkillCategory
	providers    map[providerKey]SkillProvider
	services     map[uint64]Service
	disputes     map[uint64]Dispute
	feedback     map[uint64]Feedback
	endorsements map[endorsementKey]Endorsement
	fund         CommunityFund
	ledger       []LedgerEntry
}

type providerKey struct {
	skillID uint64
	userID  uint64
}

type endorsementKey struct {
	skillID    uint64
	endorsedID uint64
	endorserID uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func newMemState() *memState {
	return &memState{
		nextUserID:    1,
		nextSkillID:   1,
		nextServiceID: 1,
		nextDisputeID: 1,
		users:         make(map[uint64]User),
		byIdentity:    make(map[string]uint64),
		skills:        make(map[uint64]SkillCategory),
		providers:     make(map[providerKey]SkillProvider),
		services:      make(map[uint64]Service),
		disputes:      make(map[uint64]Dispute),
		feedback:      make(map[uint64]Feedback),
		endorsements:  make(map[endorsementKey]Endorsement),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextUserID:    s.nextUserID,
		nextSkillID:   s.nextSkillID,
		nextServiceID: s.nextServiceID,
		nextDisputeID: s.nextDisputeID,
		users:         make(map[uint64]User, len(s.users)),
		byIdentity:    make(map[string]uint64, len(s.byIdentity)),
		skills:        make(map[uint64]SkillCategory, len(s.skills)),
		providers:     make(map[providerKey]SkillProvider, len(s.providers)),
		services:      make(map[uint64]Service, len(s.services)),
		disputes:      make(map[uint64]Dispute, len(s.disputes)),
		feedback:      make(map[uint64]Feedback, len(s.feedback)),
		endorsements:  make(map[endorsementKey]Endorsement, len(s.endorsements)),
		fund:          s.fund,
		ledger:        append([]LedgerEntry(nil), s.ledger...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.byIdentity {
		c.byIdentity[k] = v
	}
	for k, v := range s.skills {
		c.skills[k] = v
	}
	for k, v := range s.providers {
		c.providers[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	for k, v := range s.endorsements {
		c.endorsements[k] = v
	}
	return c
}

// Atomic runs fn against a shadow copy of the state and commits it only if
// fn returns nil.
func (m *MemoryStore) Atomic(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shadow := m.state.clone()
	if err := fn(&memTx{state: shadow}); err != nil {
		return err
	}
	m.state = shadow
	return nil
}

// View runs fn against the committed state.
func (m *MemoryStore) View(_ context.Context, fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{state: m.state})
}

type memTx struct {
	state *memState
}

func (t *memTx) CreateUser(u User) (User, error) {
	if _, exists := t.state.byIdentity[u.OwnerIdentity]; exists {
		return User{}, ErrConflict
	}
	u.ID = t.state.nextUserID
	t.state.nextUserID++
	t.state.users[u.ID] = u
	t.state.byIdentity[u.OwnerIdentity] = u.ID
	return u, nil
}

func (t *memTx) GetUser(id uint64) (User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (t *memTx) GetUserByIdentity(identity string) (User, error) {
	id, ok := t.state.byIdentity[identity]
	if !ok {
		return User{}, ErrNotFound
	}
	return t.state.users[id], nil
}

func (t *memTx) UpdateUser(u User) error {
	if _, ok := t.state.users[u.ID]; !ok {
		return ErrNotFound
	}
	t.state.users[u.ID] = u
	return nil
}

func (t *memTx) ListUsers() ([]User, error) {
	out := make([]User, 0, len(t.state.users))
	for _, u := range t.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateSkill(s SkillCategory) (SkillCategory, error) {
	s.ID = t.state.nextSkillID
	t.state.nextSkillID++
	t.state.skills[s.ID] = s
	return s, nil
}

func (t *memTx) GetSkill(id uint64) (SkillCategory, error) {
	s, ok := t.state.skills[id]
	if !ok {
		return SkillCategory{}, ErrNotFound
	}
	return s, nil
}

func (t *memTx) ListSkills() ([]SkillCategory, error) {
	out := make([]SkillCategory, 0, len(t.state.skills))
	for _, s := range t.state.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateProvider(p SkillProvider) error {
	key := providerKey{p.SkillID, p.UserID}
	if _, exists := t.state.providers[key]; exists {
		return ErrConflict
	}
	t.state.providers[key] = p
	return nil
}

func (t *memTx) GetProvider(skillID, userID uint64) (SkillProvider, error) {
	p, ok := t.state.providers[providerKey{skillID, userID}]
	if !ok {
		return SkillProvider{}, ErrNotFound
	}
	return p, nil
}

func (t *memTx) UpdateProvider(p SkillProvider) error {
	key := providerKey{p.SkillID, p.UserID}
	if _, ok := t.state.providers[key]; !ok {
		return ErrNotFound
	}
	t.state.providers[key] = p
	return nil
}

func (t *memTx) ListProviders(skillID uint64) ([]SkillProvider, error) {
	var out []SkillProvider
	for key, p := range t.state.providers {
		if key.skillID == skillID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (t *memTx) CreateService(s Service) (Service, error) {
	s.ID = t.state.nextServiceID
	t.state.nextServiceID++
	t.state.services[s.ID] = s
	return s, nil
}

func (t *memTx) GetService(id uint64) (Service, error) {
	s, ok := t.state.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (t *memTx) UpdateService(s Service) error {
	if _, ok := t.state.services[s.ID]; !ok {
		return ErrNotFound
	}
	t.state.services[s.ID] = s
	return nil
}

func (t *memTx) ListServicesForUser(userID uint64) ([]Service, error) {
	var out []Service
	for _, s := range t.state.services {
		if s.ProviderID == userID || s.ReceiverID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateDispute(d Dispute) (Dispute, error) {
	d.ID = t.state.nextDisputeID
	t.state.nextDisputeID++
	t.state.disputes[d.ID] = d
	return d, nil
}

func (t *memTx) GetDispute(id uint64) (Dispute, error) {
	d, ok := t.state.disputes[id]
	if !ok {
		return Dispute{}, ErrNotFound
	}
	return d, nil
}

func (t *memTx) UpdateDispute(d Dispute) error {
	if _, ok := t.state.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	t.state.disputes[d.ID] = d
	return nil
}

func (t *memTx) OpenDisputeForService(serviceID uint64) (Dispute, error) {
	for _, d := range t.state.disputes {
		if d.ServiceID == serviceID && d.Status == DisputeOpen {
			return d, nil
		}
	}
	return Dispute{}, ErrNotFound
}

func (t *memTx) ListDisputes() ([]Dispute, error) {
	out := make([]Dispute, 0, len(t.state.disputes))
	for _, d := range t.state.disputes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateFeedback(f Feedback) error {
	if _, exists := t.state.feedback[f.ServiceID]; exists {
		return ErrConflict
	}
	t.state.feedback[f.ServiceID] = f
	return nil
}

func (t *memTx) GetFeedback(serviceID uint64) (Feedback, error) {
	f, ok := t.state.feedback[serviceID]
	if !ok {
		return Feedback{}, ErrNotFound
	}
	return f, nil
}

func (t *memTx) CreateEndorsement(e Endorsement) error {
	key := endorsementKey{e.SkillID, e.EndorsedID, e.EndorserID}
	if _, exists := t.state.endorsements[key]; exists {
		return ErrConflict
	}
	t.state.endorsements[key] = e
	return nil
}

func (t *memTx) HasEndorsement(skillID, endorsedID, endorserID uint64) (bool, error) {
	_, ok := t.state.endorsements[endorsementKey{skillID, endorsedID, endorserID}]
	return ok, nil
}

func (t *memTx) GetFund() (CommunityFund, error) {
	return t.state.fund, nil
}

func (t *memTx) PutFund(f CommunityFund) error {
	t.state.fund = f
	return nil
}

func (t *memTx) AppendLedger(entry LedgerEntry) error {
	t.state.ledger = append(t.state.ledger, entry)
	return nil
}

func (t *memTx) ListLedger(userID uint64) ([]LedgerEntry, error) {
	var out []LedgerEntry
	for _, e := range t.state.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memTx) Counts() (Stats, error) {
	return Stats{
		Users:       int64(len(t.state.users)),
		Skills:      int64(len(t.state.skills)),
		Services:    int64(len(t.state.services)),
		Disputes:    int64(len(t.state.disputes)),
		FundBalance: t.state.fund.Balance,
	}, nil
}
