// Package postgres backs the timebank engine with pgx. Every Atomic call is
// one serializable transaction, which is the single serialization point for
// all mutations.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/timebank/internal/timebank"
)

type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx timebank.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) View(ctx context.Context, fn func(tx timebank.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	return fn(&pgTx{ctx: ctx, tx: tx})
}

type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

// mapErr translates pgx errors into the store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return timebank.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return timebank.ErrConflict
	}
	return err
}

const userColumns = `id, owner_identity, name, bio, time_balance, time_contributed,
    feedback_count, avg_rating, is_active, is_arbiter, created_at`

func scanUser(row pgx.Row) (timebank.User, error) {
	var u timebank.User
	err := row.Scan(&u.ID, &u.OwnerIdentity, &u.Name, &u.Bio, &u.TimeBalance,
		&u.TimeContributed, &u.FeedbackCount, &u.AvgRating, &u.IsActive, &u.IsArbiter, &u.CreatedAt)
	return u, mapErr(err)
}

func (t *pgTx) CreateUser(u timebank.User) (timebank.User, error) {
	err := t.tx.QueryRow(t.ctx, `
        INSERT INTO users (owner_identity, name, bio, time_balance, time_contributed,
            feedback_count, avg_rating, is_active, is_arbiter, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `, u.OwnerIdentity, u.Name, u.Bio, u.TimeBalance, u.TimeContributed,
		u.FeedbackCount, u.AvgRating, u.IsActive, u.IsArbiter, u.CreatedAt).Scan(&u.ID)
	return u, mapErr(err)
}

func (t *pgTx) GetUser(id uint64) (timebank.User, error) {
	return scanUser(t.tx.QueryRow(t.ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (t *pgTx) GetUserByIdentity(identity string) (timebank.User, error) {
	return scanUser(t.tx.QueryRow(t.ctx, `SELECT `+userColumns+` FROM users WHERE owner_identity = $1`, identity))
}

func (t *pgTx) UpdateUser(u timebank.User) error {
	ct, err := t.tx.Exec(t.ctx, `
        UPDATE users SET name = $2, bio = $3, time_balance = $4, time_contributed = $5,
            feedback_count = $6, avg_rating = $7, is_active = $8, is_arbiter = $9
        WHERE id = $1
    `, u.ID, u.Name, u.Bio, u.TimeBalance, u.TimeContributed,
		u.FeedbackCount, u.AvgRating, u.IsActive, u.IsArbiter)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return timebank.ErrNotFound
	}
	return nil
}

func (t *pgTx) ListUsers() ([]timebank.User, error) {
	rows, err := t.tx.Query(t.ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, mapErr(rows.Err())
}

func (t *pgTx) CreateSkill(s timebank.SkillCategory) (timebank.SkillCategory, error) {
	err := t.tx.QueryRow(t.ctx, `
        INSERT INTO skill_categories (name, description, skill_group, created_at)
        VALUES ($1, $2, $3, $4) RETURNING id
    `, s.Name, s.Description, s.Group, s.CreatedAt).Scan(&s.ID)
	return s, mapErr(err)
}

func (t *pgTx) GetSkill(id uint64) (timebank.SkillCategory, error) {
	var s timebank.SkillCategory
	err := t.tx.QueryRow(t.ctx, `
        SELECT id, name, description, skill_group, created_at FROM skill_categories WHERE id = $1
    `, id).Scan(&s.ID, &s.Name, &s.Description, &s.Group, &s.CreatedAt)
	return s, mapErr(err)
}

func (t *pgTx) ListSkills() ([]timebank.SkillCategory, error) {
	rows, err := t.tx.Query(t.ctx, `
        SELECT id, name, description, skill_group, created_at FROM skill_categories ORDER BY id
    `)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.SkillCategory
	for rows.Next() {
		var s timebank.SkillCategory
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Group, &s.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

func (t *pgTx) CreateProvider(p timebank.SkillProvider) error {
	_, err := t.tx.Exec(t.ctx, `
        INSERT INTO skill_providers (skill_id, user_id, hourly_rate, experience_level,
            availability, endorsement_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, p.SkillID, p.UserID, p.HourlyRate, p.ExperienceLevel, p.Availability, p.EndorsementCount, p.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) GetProvider(skillID, userID uint64) (timebank.SkillProvider, error) {
	var p timebank.SkillProvider
	err := t.tx.QueryRow(t.ctx, `
        SELECT skill_id, user_id, hourly_rate, experience_level, availability, endorsement_count, created_at
        FROM skill_providers WHERE skill_id = $1 AND user_id = $2
    `, skillID, userID).Scan(&p.SkillID, &p.UserID, &p.HourlyRate, &p.ExperienceLevel,
		&p.Availability, &p.EndorsementCount, &p.CreatedAt)
	return p, mapErr(err)
}

func (t *pgTx) UpdateProvider(p timebank.SkillProvider) error {
	ct, err := t.tx.Exec(t.ctx, `
        UPDATE skill_providers SET hourly_rate = $3, experience_level = $4,
            availability = $5, endorsement_count = $6
        WHERE skill_id = $1 AND user_id = $2
    `, p.SkillID, p.UserID, p.HourlyRate, p.ExperienceLevel, p.Availability, p.EndorsementCount)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return timebank.ErrNotFound
	}
	return nil
}

func (t *pgTx) ListProviders(skillID uint64) ([]timebank.SkillProvider, error) {
	rows, err := t.tx.Query(t.ctx, `
        SELECT skill_id, user_id, hourly_rate, experience_level, availability, endorsement_count, created_at
        FROM skill_providers WHERE skill_id = $1 ORDER BY user_id
    `, skillID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.SkillProvider
	for rows.Next() {
		var p timebank.SkillProvider
		if err := rows.Scan(&p.SkillID, &p.UserID, &p.HourlyRate, &p.ExperienceLevel,
			&p.Availability, &p.EndorsementCount, &p.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

const serviceColumns = `id, provider_id, receiver_id, skill_id, description, estimated_minutes,
    actual_minutes, notes, status, created_at, started_at, completed_at`

func scanService(row pgx.Row) (timebank.Service, error) {
	var s timebank.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.ReceiverID, &s.SkillID, &s.Description,
		&s.EstimatedMinutes, &s.ActualMinutes, &s.Notes, &s.Status, &s.CreatedAt,
		&s.StartedAt, &s.CompletedAt)
	return s, mapErr(err)
}

func (t *pgTx) CreateService(s timebank.Service) (timebank.Service, error) {
	err := t.tx.QueryRow(t.ctx, `
        INSERT INTO services (provider_id, receiver_id, skill_id, description,
            estimated_minutes, actual_minutes, notes, status, created_at, started_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `, s.ProviderID, s.ReceiverID, s.SkillID, s.Description, s.EstimatedMinutes,
		s.ActualMinutes, s.Notes, s.Status, s.CreatedAt, s.StartedAt, s.CompletedAt).Scan(&s.ID)
	return s, mapErr(err)
}

func (t *pgTx) GetService(id uint64) (timebank.Service, error) {
	return scanService(t.tx.QueryRow(t.ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

func (t *pgTx) UpdateService(s timebank.Service) error {
	ct, err := t.tx.Exec(t.ctx, `
        UPDATE services SET description = $2, estimated_minutes = $3, actual_minutes = $4,
            notes = $5, status = $6, started_at = $7, completed_at = $8
        WHERE id = $1
    `, s.ID, s.Description, s.EstimatedMinutes, s.ActualMinutes, s.Notes, s.Status, s.StartedAt, s.CompletedAt)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return timebank.ErrNotFound
	}
	return nil
}

func (t *pgTx) ListServicesForUser(userID uint64) ([]timebank.Service, error) {
	rows, err := t.tx.Query(t.ctx, `
        SELECT `+serviceColumns+` FROM services
        WHERE provider_id = $1 OR receiver_id = $1 ORDER BY id
    `, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

const disputeColumns = `id, service_id, raised_by, description, status, arbiter_id,
    resolution, time_adjustment, created_at, resolved_at`

func scanDispute(row pgx.Row) (timebank.Dispute, error) {
	var d timebank.Dispute
	err := row.Scan(&d.ID, &d.ServiceID, &d.RaisedBy, &d.Description, &d.Status,
		&d.ArbiterID, &d.Resolution, &d.TimeAdjustment, &d.CreatedAt, &d.ResolvedAt)
	return d, mapErr(err)
}

func (t *pgTx) CreateDispute(d timebank.Dispute) (timebank.Dispute, error) {
	err := t.tx.QueryRow(t.ctx, `
        INSERT INTO disputes (service_id, raised_by, description, status, arbiter_id,
            resolution, time_adjustment, created_at, resolved_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `, d.ServiceID, d.RaisedBy, d.Description, d.Status, d.ArbiterID,
		d.Resolution, d.TimeAdjustment, d.CreatedAt, d.ResolvedAt).Scan(&d.ID)
	return d, mapErr(err)
}

func (t *pgTx) GetDispute(id uint64) (timebank.Dispute, error) {
	return scanDispute(t.tx.QueryRow(t.ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
}

func (t *pgTx) UpdateDispute(d timebank.Dispute) error {
	ct, err := t.tx.Exec(t.ctx, `
        UPDATE disputes SET description = $2, status = $3, arbiter_id = $4,
            resolution = $5, time_adjustment = $6, resolved_at = $7
        WHERE id = $1
    `, d.ID, d.Description, d.Status, d.ArbiterID, d.Resolution, d.TimeAdjustment, d.ResolvedAt)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return timebank.ErrNotFound
	}
	return nil
}

func (t *pgTx) OpenDisputeForService(serviceID uint64) (timebank.Dispute, error) {
	return scanDispute(t.tx.QueryRow(t.ctx, `
        SELECT `+disputeColumns+` FROM disputes WHERE service_id = $1 AND status = $2
    `, serviceID, timebank.DisputeOpen))
}

func (t *pgTx) ListDisputes() ([]timebank.Dispute, error) {
	rows, err := t.tx.Query(t.ctx, `SELECT `+disputeColumns+` FROM disputes ORDER BY id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, mapErr(rows.Err())
}

func (t *pgTx) CreateFeedback(f timebank.Feedback) error {
	_, err := t.tx.Exec(t.ctx, `
        INSERT INTO feedback (service_id, rating, comment, created_at) VALUES ($1, $2, $3, $4)
    `, f.ServiceID, f.Rating, f.Comment, f.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) GetFeedback(serviceID uint64) (timebank.Feedback, error) {
	var f timebank.Feedback
	err := t.tx.QueryRow(t.ctx, `
        SELECT service_id, rating, comment, created_at FROM feedback WHERE service_id = $1
    `, serviceID).Scan(&f.ServiceID, &f.Rating, &f.Comment, &f.CreatedAt)
	return f, mapErr(err)
}

func (t *pgTx) CreateEndorsement(e timebank.Endorsement) error {
	_, err := t.tx.Exec(t.ctx, `
        INSERT INTO endorsements (skill_id, endorsed_user_id, endorser_user_id, comment, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, e.SkillID, e.EndorsedID, e.EndorserID, e.Comment, e.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) HasEndorsement(skillID, endorsedID, endorserID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(t.ctx, `
        SELECT EXISTS (
            SELECT 1 FROM endorsements
            WHERE skill_id = $1 AND endorsed_user_id = $2 AND endorser_user_id = $3
        )
    `, skillID, endorsedID, endorserID).Scan(&exists)
	return exists, mapErr(err)
}

func (t *pgTx) GetFund() (timebank.CommunityFund, error) {
	var f timebank.CommunityFund
	err := t.tx.QueryRow(t.ctx, `SELECT balance FROM community_fund WHERE id = 1`).Scan(&f.Balance)
	return f, mapErr(err)
}

func (t *pgTx) PutFund(f timebank.CommunityFund) error {
	_, err := t.tx.Exec(t.ctx, `UPDATE community_fund SET balance = $1 WHERE id = 1`, f.Balance)
	return mapErr(err)
}

func (t *pgTx) AppendLedger(entry timebank.LedgerEntry) error {
	_, err := t.tx.Exec(t.ctx, `
        INSERT INTO ledger_entries (id, user_id, amount, kind, reference, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, entry.ID, entry.UserID, entry.Amount, entry.Kind, entry.Reference, entry.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) ListLedger(userID uint64) ([]timebank.LedgerEntry, error) {
	rows, err := t.tx.Query(t.ctx, `
        SELECT id, user_id, amount, kind, reference, created_at
        FROM ledger_entries WHERE user_id = $1 ORDER BY created_at, id
    `, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []timebank.LedgerEntry
	for rows.Next() {
		var e timebank.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Kind, &e.Reference, &e.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

func (t *pgTx) Counts() (timebank.Stats, error) {
	var st timebank.Stats
	err := t.tx.QueryRow(t.ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM skill_categories),
            (SELECT COUNT(*) FROM services),
            (SELECT COUNT(*) FROM disputes),
            (SELECT balance FROM community_fund WHERE id = 1)
    `).Scan(&st.Users, &st.Skills, &st.Services, &st.Disputes, &st.FundBalance)
	return st, mapErr(err)
}
