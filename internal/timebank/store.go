package timebank

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Tx lookups when a record does not exist. The
// engine translates it into the operation-appropriate rejection code.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by Tx inserts on a uniqueness violation.
var ErrConflict = errors.New("record already exists")

// Tx is a consistent view of the timebank tables. Inside Store.Atomic it is
// read-write; inside Store.View every mutator must be treated as off-limits.
type Tx interface {
	// Users. CreateUser assigns the next dense id.
	CreateUser(u User) (User, error)
	GetUser(id uint64) (User, error)
	GetUserByIdentity(identity string) (User, error)
	UpdateUser(u User) error
	ListUsers() ([]User, error)

	// Skill catalog.
	CreateSkill(s SkillCategory) (SkillCategory, error)
	GetSkill(id uint64) (SkillCategory, error)
	ListSkills() ([]SkillCategory, error)

	// Provider listings, keyed by (skill, user).
	CreateProvider(p SkillProvider) error
	GetProvider(skillID, userID uint64) (SkillProvider, error)
	UpdateProvider(p SkillProvider) error
	ListProviders(skillID uint64) ([]SkillProvider, error)

	// Services.
	CreateService(s Service) (Service, error)
	GetService(id uint64) (Service, error)
	UpdateService(s Service) error
	ListServicesForUser(userID uint64) ([]Service, error)

	// Disputes.
	CreateDispute(d Dispute) (Dispute, error)
	GetDispute(id uint64) (Dispute, error)
	UpdateDispute(d Dispute) error
	OpenDisputeForService(serviceID uint64) (Dispute, error)
	ListDisputes() ([]Dispute, error)

	// Feedback, keyed by service.
	CreateFeedback(f Feedback) error
	GetFeedback(serviceID uint64) (Feedback, error)

	// Endorsements, keyed by (skill, endorsed, endorser).
	CreateEndorsement(e Endorsement) error
	HasEndorsement(skillID, endorsedID, endorserID uint64) (bool, error)

	// Community fund singleton.
	GetFund() (CommunityFund, error)
	PutFund(f CommunityFund) error

	// Ledger journal.
	AppendLedger(entry LedgerEntry) error
	ListLedger(userID uint64) ([]LedgerEntry, error)

	// Counts for admin stats.
	Counts() (Stats, error)
}

// Store owns the timebank tables. Atomic serializes all writers behind a
// single point and commits the transaction all-or-nothing; View serves reads
// from a committed snapshot and may run concurrently with other views.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}
