package timebank

import (
	"context"
	"fmt"
)

// AssignArbiter attaches a designated arbiter to an open dispute. Admin only.
func (e *Engine) AssignArbiter(ctx context.Context, caller Caller, disputeID, arbiterID uint64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		if !caller.Admin {
			return reject(CodeNotAuthorized, "admin privileges required")
		}
		d, err := tx.GetDispute(disputeID)
		if err != nil {
			return reject(CodeDisputeNotFound, "dispute %d not found", disputeID)
		}
		if d.Status == DisputeResolved {
			return reject(CodeDisputeAlreadyResolved, "dispute %d already resolved", disputeID)
		}
		arbiter, err := tx.GetUser(arbiterID)
		if err != nil {
			return reject(CodeUserNotFound, "user %d not found", arbiterID)
		}
		if !arbiter.IsArbiter {
			return reject(CodeNotArbiter, "user %d is not an arbiter", arbiterID)
		}
		d.ArbiterID = &arbiterID
		return tx.UpdateDispute(d)
	})
}

// ResolveDispute closes a dispute with a verdict. Only the assigned arbiter
// may resolve. The adjustment is subtracted from the receiver's balance,
// so a negative adjustment credits the receiver. The disputed service stays
// Disputed; a resolved dispute is terminal for it.
func (e *Engine) ResolveDispute(ctx context.Context, caller Caller, disputeID uint64, resolution string, timeAdjustment int64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		d, err := tx.GetDispute(disputeID)
		if err != nil {
			return reject(CodeDisputeNotFound, "dispute %d not found", disputeID)
		}
		if d.Status == DisputeResolved {
			return reject(CodeDisputeAlreadyResolved, "dispute %d already resolved", disputeID)
		}
		if d.ArbiterID == nil || *d.ArbiterID != u.ID {
			return reject(CodeNotArbiter, "caller is not the assigned arbiter for dispute %d", disputeID)
		}

		s, err := tx.GetService(d.ServiceID)
		if err != nil {
			return err
		}
		if timeAdjustment != 0 {
			receiver, err := tx.GetUser(s.ReceiverID)
			if err != nil {
				return err
			}
			ref := fmt.Sprintf("dispute:%d", d.ID)
			if _, err := e.move(tx, receiver, -timeAdjustment, EntryAdjustment, ref); err != nil {
				return err
			}
		}
		now := e.now()
		d.Status = DisputeResolved
		d.Resolution = resolution
		d.TimeAdjustment = timeAdjustment
		d.ResolvedAt = &now
		return tx.UpdateDispute(d)
	})
}
