package timebank

import "context"

// LeaveFeedback records a 0-100 rating for a verified service. Receiver only,
// once per service. The provider's average rating is a running mean over
// integer arithmetic, so it truncates toward zero.
func (e *Engine) LeaveFeedback(ctx context.Context, caller Caller, serviceID uint64, rating int64, comment string) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		s, err := tx.GetService(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", serviceID)
		}
		if s.ReceiverID != u.ID {
			return reject(CodeNotServiceReceiver, "only the receiver may rate service %d", serviceID)
		}
		if s.Status != ServiceVerified {
			return reject(CodeServiceNotCompleted, "service %d is not verified", serviceID)
		}
		if _, err := tx.GetFeedback(serviceID); err == nil {
			return reject(CodeFeedbackAlreadyGiven, "service %d already rated", serviceID)
		}
		if rating < 0 || rating > 100 {
			return reject(CodeInvalidParameters, "rating must be between 0 and 100")
		}

		provider, err := tx.GetUser(s.ProviderID)
		if err != nil {
			return err
		}
		provider.AvgRating = (provider.AvgRating*provider.FeedbackCount + rating) / (provider.FeedbackCount + 1)
		provider.FeedbackCount++
		if err := tx.UpdateUser(provider); err != nil {
			return err
		}
		return tx.CreateFeedback(Feedback{
			ServiceID: serviceID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: e.now(),
		})
	})
}

// EndorseSkill records a one-time peer attestation that a provider is good at
// a skill they list. Self-endorsement is refused.
func (e *Engine) EndorseSkill(ctx context.Context, caller Caller, skillID, endorsedID uint64, comment string) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		endorser, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		if endorsedID == endorser.ID {
			return reject(CodeSelfActionNotAllowed, "cannot endorse yourself")
		}
		if _, err := tx.GetUser(endorsedID); err != nil {
			return reject(CodeUserNotFound, "user %d not found", endorsedID)
		}
		if _, err := tx.GetSkill(skillID); err != nil {
			return reject(CodeSkillNotFound, "skill %d not found", skillID)
		}
		p, err := tx.GetProvider(skillID, endorsedID)
		if err != nil {
			return reject(CodeSkillNotFound, "user %d does not offer skill %d", endorsedID, skillID)
		}
		ok, err := tx.HasEndorsement(skillID, endorsedID, endorser.ID)
		if err != nil {
			return err
		}
		if ok {
			return reject(CodeEndorsementAlreadyExists, "already endorsed user %d for skill %d", endorsedID, skillID)
		}

		if err := tx.CreateEndorsement(Endorsement{
			SkillID:    skillID,
			EndorsedID: endorsedID,
			EndorserID: endorser.ID,
			Comment:    comment,
			CreatedAt:  e.now(),
		}); err != nil {
			return err
		}
		p.EndorsementCount++
		return tx.UpdateProvider(p)
	})
}

// HasEndorsed reports whether endorser has already endorsed endorsed for skill.
func (e *Engine) HasEndorsed(ctx context.Context, skillID, endorsedID, endorserID uint64) (bool, error) {
	var ok bool
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		ok, err = tx.HasEndorsement(skillID, endorsedID, endorserID)
		return err
	})
	return ok, err
}
