package timebank

import (
	"context"
	"fmt"
)

// RequestService creates a Pending service with the caller as receiver.
// No balance moves until the provider starts the work.
func (e *Engine) RequestService(ctx context.Context, caller Caller, providerID, skillID uint64, description string, estimatedMinutes int64, notes string) (uint64, error) {
	var id uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		receiver, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		if providerID == receiver.ID {
			return reject(CodeSelfActionNotAllowed, "cannot request a service from yourself")
		}
		if _, err := tx.GetUser(providerID); err != nil {
			return reject(CodeUserNotFound, "provider %d not found", providerID)
		}
		if _, err := tx.GetSkill(skillID); err != nil {
			return reject(CodeSkillNotFound, "skill %d not found", skillID)
		}
		if _, err := tx.GetProvider(skillID, providerID); err != nil {
			return reject(CodeSkillNotFound, "user %d does not offer skill %d", providerID, skillID)
		}
		if estimatedMinutes <= 0 {
			return reject(CodeInvalidParameters, "estimated minutes must be positive")
		}
		s, err := tx.CreateService(Service{
			ProviderID:       providerID,
			ReceiverID:       receiver.ID,
			SkillID:          skillID,
			Description:      description,
			EstimatedMinutes: estimatedMinutes,
			Notes:            notes,
			Status:           ServicePending,
			CreatedAt:        e.now(),
		})
		if err != nil {
			return err
		}
		id = s.ID
		return nil
	})
	return id, err
}

// StartService moves a Pending service to Started and debits the receiver by
// the estimated minutes. The debit may push the receiver's balance negative;
// that is deliberate and never clamped.
func (e *Engine) StartService(ctx context.Context, caller Caller, serviceID uint64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		s, err := tx.GetService(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", serviceID)
		}
		if s.ProviderID != u.ID {
			return reject(CodeNotServiceProvider, "only the provider may start service %d", serviceID)
		}
		switch s.Status {
		case ServicePending:
		case ServiceCanceled:
			return reject(CodeServiceAlreadyCanceled, "service %d is canceled", serviceID)
		default:
			return reject(CodeServiceAlreadyStarted, "service %d already started", serviceID)
		}

		receiver, err := tx.GetUser(s.ReceiverID)
		if err != nil {
			return err
		}
		ref := fmt.Sprintf("service:%d", s.ID)
		if _, err := e.move(tx, receiver, -s.EstimatedMinutes, EntryEscrowHold, ref); err != nil {
			return err
		}
		now := e.now()
		s.Status = ServiceStarted
		s.StartedAt = &now
		return tx.UpdateService(s)
	})
}

// CompleteService records the actual minutes worked and moves the service to
// Completed. No balance moves until the receiver verifies.
func (e *Engine) CompleteService(ctx context.Context, caller Caller, serviceID uint64, actualMinutes int64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		s, err := tx.GetService(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", serviceID)
		}
		if s.ProviderID != u.ID {
			return reject(CodeNotServiceProvider, "only the provider may complete service %d", serviceID)
		}
		switch s.Status {
		case ServiceStarted:
		case ServiceCompleted:
			return reject(CodeAlreadyCompleted, "service %d already completed", serviceID)
		case ServiceVerified:
			return reject(CodeAlreadyVerified, "service %d already verified", serviceID)
		case ServiceCanceled:
			return reject(CodeServiceAlreadyCanceled, "service %d is canceled", serviceID)
		default:
			return reject(CodeServiceNotStarted, "service %d not started", serviceID)
		}
		if actualMinutes < 0 {
			return reject(CodeInvalidParameters, "actual minutes must not be negative")
		}

		now := e.now()
		s.Status = ServiceCompleted
		s.ActualMinutes = &actualMinutes
		s.CompletedAt = &now
		return tx.UpdateService(s)
	})
}

// VerifyService settles a Completed service. The provider is credited the
// actual minutes, not the estimate already debited from the receiver, and
// time_contributed grows by the same amount.
func (e *Engine) VerifyService(ctx context.Context, caller Caller, serviceID uint64) error {
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
			return reject(CodeNotServiceReceiver, "only the receiver may verify service %d", serviceID)
		}
		switch s.Status {
		case ServiceCompleted:
		case ServiceVerified:
			return reject(CodeAlreadyVerified, "service %d already verified", serviceID)
		case ServiceCanceled:
			return reject(CodeServiceAlreadyCanceled, "service %d is canceled", serviceID)
		default:
			return reject(CodeServiceNotCompleted, "service %d not completed", serviceID)
		}

		provider, err := tx.GetUser(s.ProviderID)
		if err != nil {
			return err
		}
		actual := *s.ActualMinutes
		ref := fmt.Sprintf("service:%d", s.ID)
		provider, err = e.move(tx, provider, actual, EntryPayout, ref)
		if err != nil {
			return err
		}
		provider.TimeContributed += actual
		if err := tx.UpdateUser(provider); err != nil {
			return err
		}
		s.Status = ServiceVerified
		return tx.UpdateService(s)
	})
}

// CancelService cancels a Pending or Started service. Either party may
// cancel. A Started cancel refunds the receiver the full estimated debit.
func (e *Engine) CancelService(ctx context.Context, caller Caller, serviceID uint64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		s, err := tx.GetService(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", serviceID)
		}
		if s.ProviderID != u.ID && s.ReceiverID != u.ID {
			return reject(CodeNotAuthorized, "not a party to service %d", serviceID)
		}
		switch s.Status {
		case ServicePending, ServiceStarted:
		case ServiceCanceled:
			return reject(CodeServiceAlreadyCanceled, "service %d already canceled", serviceID)
		case ServiceCompleted:
			return reject(CodeAlreadyCompleted, "service %d already completed", serviceID)
		case ServiceVerified:
			return reject(CodeAlreadyVerified, "service %d already verified", serviceID)
		default:
			return reject(CodeDisputeAlreadyExists, "service %d is under dispute", serviceID)
		}

		if s.Status == ServiceStarted {
			receiver, err := tx.GetUser(s.ReceiverID)
			if err != nil {
				return err
			}
			ref := fmt.Sprintf("service:%d", s.ID)
			if _, err := e.move(tx, receiver, s.EstimatedMinutes, EntryRefund, ref); err != nil {
				return err
			}
		}
		s.Status = ServiceCanceled
		return tx.UpdateService(s)
	})
}

// RaiseDispute escalates a Started or Completed service. Only the provider
// or the receiver may raise one, and at most one dispute may be open per
// service. The service is forced to Disputed.
func (e *Engine) RaiseDispute(ctx context.Context, caller Caller, serviceID uint64, description string) (uint64, error) {
	var id uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		s, err := tx.GetService(serviceID)
		if err != nil {
			return reject(CodeServiceNotFound, "service %d not found", serviceID)
		}
		if s.ProviderID != u.ID && s.ReceiverID != u.ID {
			return reject(CodeNotDisputeParticipant, "not a party to service %d", serviceID)
		}
		switch s.Status {
		case ServiceStarted, ServiceCompleted:
		case ServiceDisputed:
			return reject(CodeDisputeAlreadyExists, "service %d already disputed", serviceID)
		case ServicePending:
			return reject(CodeServiceNotStarted, "service %d not started", serviceID)
		case ServiceVerified:
			return reject(CodeAlreadyVerified, "service %d already verified", serviceID)
		default:
			return reject(CodeServiceAlreadyCanceled, "service %d is canceled", serviceID)
		}
		if _, err := tx.OpenDisputeForService(serviceID); err == nil {
			return reject(CodeDisputeAlreadyExists, "service %d already has an open dispute", serviceID)
		}

		d, err := tx.CreateDispute(Dispute{
			ServiceID:   serviceID,
			RaisedBy:    u.ID,
			Description: description,
			Status:      DisputeOpen,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return err
		}
		s.Status = ServiceDisputed
		if err := tx.UpdateService(s); err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	return id, err
}
