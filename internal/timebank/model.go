package timebank

import "time"

// StartingGrant is the time-credit balance granted on registration, in minutes.
const StartingGrant int64 = 60

// ServiceStatus is the lifecycle state of a requested unit of work.
// Numeric values are part of the stored representation and never change.
type ServiceStatus int

const (
	ServicePending   ServiceStatus = 1
	ServiceStarted   ServiceStatus = 2
	ServiceCompleted ServiceStatus = 3
	ServiceVerified  ServiceStatus = 4
	ServiceDisputed  ServiceStatus = 5
	ServiceCanceled  ServiceStatus = 6
)

func (s ServiceStatus) String() string {
	switch s {
	case ServicePending:
		return "pending"
	case ServiceStarted:
		return "started"
	case ServiceCompleted:
		return "completed"
	case ServiceVerified:
		return "verified"
	case ServiceDisputed:
		return "disputed"
	case ServiceCanceled:
		return "canceled"
	}
	return "unknown"
}

// DisputeStatus is the state of a dispute.
type DisputeStatus int

const (
	DisputeOpen     DisputeStatus = 1
	DisputeResolved DisputeStatus = 2
)

func (s DisputeStatus) String() string {
	switch s {
	case DisputeOpen:
		return "open"
	case DisputeResolved:
		return "resolved"
	}
	return "unknown"
}

// Caller is the already-authenticated principal supplied by the environment
// for every call. The engine only authorizes, it never authenticates.
type Caller struct {
	Identity string
	Admin    bool
}

// User is a registered member. Balances are in minutes and signed.
type User struct {
	ID              uint64    `json:"id"`
	OwnerIdentity   string    `json:"owner_identity"`
	Name            string    `json:"name"`
	Bio             string    `json:"bio"`
	TimeBalance     int64     `json:"time_balance"`
	TimeContributed int64     `json:"time_contributed"`
	FeedbackCount   int64     `json:"feedback_count"`
	AvgRating       int64     `json:"avg_rating"`
	IsActive        bool      `json:"is_active"`
	IsArbiter       bool      `json:"is_arbiter"`
	CreatedAt       time.Time `json:"created_at"`
}

// SkillCategory is an admin-curated skill. Immutable once created.
type SkillCategory struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Group       string    `json:"group"`
	CreatedAt   time.Time `json:"created_at"`
}

// SkillProvider is a (skill, user) listing. The pair is the primary key.
type SkillProvider struct {
	SkillID          uint64    `json:"skill_id"`
	UserID           uint64    `json:"user_id"`
	HourlyRate       int64     `json:"hourly_rate"`
	ExperienceLevel  string    `json:"experience_level"`
	Availability     string    `json:"availability"`
	EndorsementCount int64     `json:"endorsement_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// Service is one requested unit of work between a provider and a receiver.
type Service struct {
	ID               uint64        `json:"id"`
	ProviderID       uint64        `json:"provider_id"`
	ReceiverID       uint64        `json:"receiver_id"`
	SkillID          uint64        `json:"skill_id"`
	Description      string        `json:"description"`
	EstimatedMinutes int64         `json:"estimated_minutes"`
	ActualMinutes    *int64        `json:"actual_minutes,omitempty"`
	Notes            string        `json:"notes"`
	Status           ServiceStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// Dispute is an escalation raised against a started or completed service.
// TimeAdjustment is subtracted from the receiver's balance on resolution, so
// a negative adjustment returns credit to the receiver.
type Dispute struct {
	ID             uint64        `json:"id"`
	ServiceID      uint64        `json:"service_id"`
	RaisedBy       uint64        `json:"raised_by"`
	Description    string        `json:"description"`
	Status         DisputeStatus `json:"status"`
	ArbiterID      *uint64       `json:"arbiter_id,omitempty"`
	Resolution     string        `json:"resolution"`
	TimeAdjustment int64         `json:"time_adjustment"`
	CreatedAt      time.Time     `json:"created_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// Feedback is a one-per-service rating left by the receiver after verification.
type Feedback struct {
	ServiceID uint64    `json:"service_id"`
	Rating    int64     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Endorsement is a one-time peer attestation of a provider's skill.
// The (skill, endorsed, endorser) triple is the primary key.
type Endorsement struct {
	SkillID    uint64    `json:"skill_id"`
	EndorsedID uint64    `json:"endorsed_user_id"`
	EndorserID uint64    `json:"endorser_user_id"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommunityFund is the pooled balance fed by donations.
type CommunityFund struct {
	Balance int64 `json:"balance"`
}

// Ledger entry kinds, one per class of balance movement.
const (
	EntryGrant      = "grant"
	EntryEscrowHold = "escrow_hold"
	EntryRefund     = "refund"
	EntryPayout     = "payout"
	EntryAdjustment = "adjustment"
	EntryDonation   = "donation"
	EntryAllocation = "allocation"
)

// LedgerEntry records a single balance movement for audit. Amount is signed
// from the user's point of view.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is the admin-facing projection of table counts.
type Stats struct {
	Users       int64 `json:"users"`
	Skills      int64 `json:"skills"`
	Services    int64 `json:"services"`
	Disputes    int64 `json:"disputes"`
	FundBalance int64 `json:"fund_balance"`
}
