package timebank

import "context"

// GetUser fetches a user by id.
func (e *Engine) GetUser(ctx context.Context, id uint64) (User, error) {
	var u User
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		u, err = tx.GetUser(id)
		if err != nil {
			return reject(CodeUserNotFound, "user %d not found", id)
		}
		return nil
	})
	return u, err
}

// GetUserByIdentity fetches the user registered under an identity, if any.
func (e *Engine) GetUserByIdentity(ctx context.Context, identity string) (User, error) {
	var u User
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		u, err = tx.GetUserByIdentity(identity)
		if err != nil {
			return reject(CodeUserNotFound, "no user registered for identity")
		}
		return nil
	})
	return u, err
}

// Balance returns a user's current signed time balance.
func (e *Engine) Balance(ctx context.Context, id uint64) (int64, error) {
	u, err := e.GetUser(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.TimeBalance, nil
}

// Ledger returns a user's balance movement history, oldest first.
func (e *Engine) Ledger(ctx context.Context, id uint64) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := e.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetUser(id); err != nil {
			return reject(CodeUserNotFound, "user %d not found", id)
		}
		var err error
		entries, err = tx.ListLedger(id)
		return err
	})
	return entries, err
}

// ListUsers returns all registered users ordered by id.
func (e *Engine) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		users, err = tx.ListUsers()
		return err
	})
	return users, err
}

// GetSkill fetches a skill category by id.
func (e *Engine) GetSkill(ctx context.Context, id uint64) (SkillCategory, error) {
	var s SkillCategory
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		s, err = tx.GetSkill(id)
		if err != nil {
			return reject(CodeSkillNotFound, "skill %d not found", id)
		}
		return nil
	})
	return s, err
}

// ListSkills returns the whole skill catalog ordered by id.
func (e *Engine) ListSkills(ctx context.Context) ([]SkillCategory, error) {
	var skills []SkillCategory
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		skills, err = tx.ListSkills()
		return err
	})
	return skills, err
}

// GetSkillProvider fetches one provider listing.
func (e *Engine) GetSkillProvider(ctx context.Context, skillID, userID uint64) (SkillProvider, error) {
	var p SkillProvider
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		p, err = tx.GetProvider(skillID, userID)
		if err != nil {
			return reject(CodeSkillNotFound, "user %d does not offer skill %d", userID, skillID)
		}
		return nil
	})
	return p, err
}

// ListProviders returns every listing for a skill.
func (e *Engine) ListProviders(ctx context.Context, skillID uint64) ([]SkillProvider, error) {
	var providers []SkillProvider
	err := e.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetSkill(skillID); err != nil {
			return reject(CodeSkillNotFound, "skill %d not found", skillID)
		}
		var err error
		providers, err = tx.ListProviders(skillID)
		return err
	})
	return providers, err
}

// GetService fetches a service by id.
func (e *Engine) GetService(ctx context.Context, id uint64) (Service, error) {
	var s Service
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		s, err = tx.GetService(id)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", id)
		}
		return nil
	})
	return s, err
}

// ListServicesForUser returns every service where the user is provider or
// receiver, ordered by id.
func (e *Engine) ListServicesForUser(ctx context.Context, userID uint64) ([]Service, error) {
	var services []Service
	err := e.store.View(ctx, func(tx Tx) error {
		if _, err := tx.GetUser(userID); err != nil {
			return reject(CodeUserNotFound, "user %d not found", userID)
		}
		var err error
		services, err = tx.ListServicesForUser(userID)
		return err
	})
	return services, err
}

// GetDispute fetches a dispute by id.
func (e *Engine) GetDispute(ctx context.Context, id uint64) (Dispute, error) {
	var d Dispute
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		d, err = tx.GetDispute(id)
		if err != nil {
			return reject(CodeDisputeNotFound, "dispute %d not found", id)
		}
		return nil
	})
	return d, err
}

// ListDisputes returns all disputes ordered by id.
func (e *Engine) ListDisputes(ctx context.Context) ([]Dispute, error) {
	var disputes []Dispute
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		disputes, err = tx.ListDisputes()
		return err
	})
	return disputes, err
}

// GetFeedback fetches the feedback left for a service, if any.
func (e *Engine) GetFeedback(ctx context.Context, serviceID uint64) (Feedback, error) {
	var f Feedback
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		f, err = tx.GetFeedback(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "no feedback for service %d", serviceID)
		}
		return nil
	})
	return f, err
}

// Stats returns the admin-facing table counts and fund balance.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		st, err = tx.Counts()
		return err
	})
	return st, err
}
