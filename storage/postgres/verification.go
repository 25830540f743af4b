package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/grantkit/core"
)

type verificationStore struct{ s *Store }

const requestColumns = `id, user_id, type, status, duration_days, expires_at,
	submitted_at, reviewed_by, reviewed_at, reject_reason`

func (v *verificationStore) Insert(ctx context.Context, r *core.VerificationRequest) error {
	_, err := v.s.q(ctx).Exec(ctx, `INSERT INTO `+v.s.table("verification_requests")+` (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.Type, r.Status, r.DurationDays, r.ExpiresAt,
		r.SubmittedAt, r.ReviewedBy, r.ReviewedAt, nullIfEmpty(r.RejectReason))
	return err
}

func (v *verificationStore) ByID(ctx context.Context, id uuid.UUID) (*core.VerificationRequest, error) {
	row := v.s.q(ctx).QueryRow(ctx, `SELECT `+requestColumns+` FROM `+v.s.table("verification_requests")+` WHERE id=$1`, id)
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (v *verificationStore) Update(ctx context.Context, r *core.VerificationRequest) error {
	tag, err := v.s.q(ctx).Exec(ctx, `UPDATE `+v.s.table("verification_requests")+`
		SET status=$2, duration_days=$3, expires_at=$4, reviewed_by=$5, reviewed_at=$6, reject_reason=$7
		WHERE id=$1`,
		r.ID, r.Status, r.DurationDays, r.ExpiresAt, r.ReviewedBy, r.ReviewedAt, nullIfEmpty(r.RejectReason))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrRequestNotFound
	}
	return nil
}

func (v *verificationStore) Expired(ctx context.Context, now time.Time) ([]core.VerificationRequest, error) {
	rows, err := v.s.q(ctx).Query(ctx, `SELECT `+requestColumns+` FROM `+v.s.table("verification_requests")+`
		WHERE status=$1 AND expires_at IS NOT NULL AND expires_at < $2 ORDER BY expires_at`,
		core.VerificationApproved, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.VerificationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*core.VerificationRequest, error) {
	var r core.VerificationRequest
	var reason *string
	err := row.Scan(&r.ID, &r.UserID, &r.Type, &r.Status, &r.DurationDays, &r.ExpiresAt,
		&r.SubmittedAt, &r.ReviewedBy, &r.ReviewedAt, &reason)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		r.RejectReason = *reason
	}
	return &r, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
