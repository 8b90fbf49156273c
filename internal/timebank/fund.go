package timebank

import (
	"context"
	"fmt"
)

// Donate moves credit from the caller into the community fund. Unlike service
// debits a donation must be covered by the caller's balance.
func (e *Engine) Donate(ctx context.Context, caller Caller, amount int64) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		u, err := callerUser(tx, caller)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return reject(CodeInvalidParameters, "donation amount must be positive")
		}
		if u.TimeBalance < amount {
			return reject(CodeInsufficientBalance, "balance %d is less than donation %d", u.TimeBalance, amount)
		}

		if _, err := e.move(tx, u, -amount, EntryDonation, "fund"); err != nil {
			return err
		}
		fund, err := tx.GetFund()
		if err != nil {
			return err
		}
		fund.Balance += amount
		return tx.PutFund(fund)
	})
}

// Allocate grants credit from the community fund to a user. Admin only, and
// the fund must cover the grant. The reason is journaled with the entry.
func (e *Engine) Allocate(ctx context.Context, caller Caller, userID uint64, amount int64, reason string) error {
	return e.store.Atomic(ctx, func(tx Tx) error {
		if !caller.Admin {
			return reject(CodeNotAuthorized, "admin privileges required")
		}
		u, err := tx.GetUser(userID)
		if err != nil {
			return reject(CodeUserNotFound, "user %d not found", userID)
		}
		if amount <= 0 {
			return reject(CodeInvalidParameters, "allocation amount must be positive")
		}
		fund, err := tx.GetFund()
		if err != nil {
			return err
		}
		if fund.Balance < amount {
			return reject(CodeInsufficientBalance, "fund balance %d is less than allocation %d", fund.Balance, amount)
		}

		fund.Balance -= amount
		if err := tx.PutFund(fund); err != nil {
			return err
		}
		if reason == "" {
			reason = fmt.Sprintf("user:%d", userID)
		}
		_, err = e.move(tx, u, amount, EntryAllocation, reason)
		return err
	})
}

// FundBalance returns the community fund's pooled balance.
func (e *Engine) FundBalance(ctx context.Context) (int64, error) {
	var balance int64
	err := e.store.View(ctx, func(tx Tx) error {
		fund, err := tx.GetFund()
		if err != nil {
			return err
		}
		balance = fund.Balance
		return nil
	})
	return balance, err
}
