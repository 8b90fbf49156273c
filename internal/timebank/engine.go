// Package timebank implements the mutual-credit accounting and lifecycle
// engine: the ledger of time-credit balances, the service state machine, the
// dispute resolution path, and the authorization rules gating every mutation.
//
// Every public operation is one atomic transaction. Preconditions are checked
// against a consistent snapshot before any mutation, and a rejection leaves
// no partial effects. All mutating calls are serialized by the Store.
package timebank

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine drives all mutations of the timebank tables. Construct with New.
type Engine struct {
	store Store
	now   func() time.Time
	newID func() string
}

// New creates an engine over the given store.
func New(store Store) *Engine {
	return &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// callerUser resolves the caller to an active user record.
func callerUser(tx Tx, caller Caller) (User, error) {
	u, err := tx.GetUserByIdentity(caller.Identity)
	if err != nil {
		return User{}, reject(CodeUserNotFound, "caller is not a registered user")
	}
	if !u.IsActive {
		return User{}, reject(CodeNotAuthorized, "user %d is suspended", u.ID)
	}
	return u, nil
}

// move applies a signed balance delta to a user and journals it.
func (e *Engine) move(tx Tx, u User, amount int64, kind, reference string) (User, error) {
	u.TimeBalance += amount
	if err := tx.UpdateUser(u); err != nil {
		return User{}, err
	}
	entry := LedgerEntry{
		ID:        e.newID(),
		UserID:    u.ID,
		Amount:    amount,
		Kind:      kind,
		Reference: reference,
		CreatedAt: e.now(),
	}
	if err := tx.AppendLedger(entry); err != nil {
		return User{}, err
	}
	return u, nil
}

// Register creates a user record for the calling identity and grants the
// starting balance. One record per identity, ever.
func (e *Engine) Register(ctx context.Context, caller Caller, name, bio string) (uint64, error) {
	var id uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.GetUserByIdentity(caller.Identity); err == nil {
			return reject(CodeAlreadyExists, "identity already registered")
		}
		u, err := tx.CreateUser(User{
			OwnerIdentity: caller.Identity,
			Name:          name,
			Bio:           bio,
			TimeBalance:   0,
			IsActive:      true,
			CreatedAt:     e.now(),
		})
		if err != nil {
			return err
		}
		if u, err = e.move(tx, u, StartingGrant, EntryGrant, "registration"); err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	return id, err
}

// SetArbiter flags a user as eligible to resolve disputes. Admin only.
func (e *Engine) SetArbiter(ctx context.Context, caller Caller, userID uint64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		if !caller.Admin {
			return reject(CodeNotAuthorized, "admin only")
		}
		u, err := tx.GetUser(userID)
		if err != nil {
			return reject(CodeUserNotFound, "user %d not found", userID)
		}
		u.IsArbiter = true
		return tx.UpdateUser(u)
	})
}

// UpdateProfile updates the caller's own name and bio. Empty fields keep
// their current values.
func (e *Engine) UpdateProfile(ctx context.Context, caller Caller, name, bio string) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		if name != "" {
			u.Name = name
		}
		if bio != "" {
			u.Bio = bio
		}
		return tx.UpdateUser(u)
	})
}

// SuspendUser deactivates a user. Admin only. Suspended users are rejected
// on every mutating operation they initiate; their records and balances stay.
func (e *Engine) SuspendUser(ctx context.Context, caller Caller, userID uint64) error {
	return e.setActive(ctx, caller, userID, false)
}

// ActivateUser reverses a suspension. Admin only.
func (e *Engine) ActivateUser(ctx context.Context, caller Caller, userID uint64) error {
	return e.setActive(ctx, caller, userID, true)
}

func (e *Engine) setActive(ctx context.Context, caller Caller, userID uint64, active bool) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		if !caller.Admin {
			return reject(CodeNotAuthorized, "admin only")
		}
		u, err := tx.GetUser(userID)
		if err != nil {
			return reject(CodeUserNotFound, "user %d not found", userID)
		}
		u.IsActive = active
		return tx.UpdateUser(u)
	})
}
