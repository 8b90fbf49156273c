package timebank

import "context"

// AddSkillCategory creates a curated skill category. Admin only. Duplicate
// names are allowed; distinct ids may share a name.
func (e *Engine) AddSkillCategory(ctx context.Context, caller Caller, name, description, group string) (uint64, error) {
	var id uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if !caller.Admin {
			return reject(CodeNotAuthorized, "admin only")
		}
		s, err := tx.CreateSkill(SkillCategory{
			Name:        name,
			Description: description,
			Group:       group,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return err
		}
		id = s.ID
		return nil
	})
	return id, err
}

// RegisterAsProvider lists the caller as a provider for a skill. The
// (skill, caller) pair must not already exist.
func (e *Engine) RegisterAsProvider(ctx context.Context, caller Caller, skillID uint64, hourlyRate int64, experienceLevel, availability string) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		if _, err := tx.GetSkill(skillID); err != nil {
			return reject(CodeSkillNotFound, "skill %d not found", skillID)
		}
		if _, err := tx.GetProvider(skillID, u.ID); err == nil {
			return reject(CodeAlreadyExists, "already registered as provider for skill %d", skillID)
		}
		return tx.CreateProvider(SkillProvider{
			SkillID:         skillID,
			UserID:          u.ID,
			HourlyRate:      hourlyRate,
			ExperienceLevel: experienceLevel,
			Availability:    availability,
			CreatedAt:       e.now(),
		})
	})
}

// OffersSkill reports whether a user has a provider listing for a skill.
func (e *Engine) OffersSkill(ctx context.Context, userID, skillID uint64) (bool, error) {
	var offers bool
	err := e.store.View(ctx, func(tx Tx) error {
		_, err := tx.GetProvider(skillID, userID)
		offers = err == nil
		return nil
	})
	return offers, err
}
