package pg

import (
	"context"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
)

type suspensionRepo struct {
	q querier
}

func (r *suspensionRepo) GetActive(ctx context.Context, userID int64, now time.Time) (*repository.UserSuspension, error) {
	// Most recent non-lifted row with a live deadline wins. The permanent
	// sentinel (year 9999) always satisfies deadline > now.
	row := r.q.QueryRow(ctx, `
		SELECT id, user_id, reason, deadline, admin_id, lifted_at, created_at
		FROM user_suspensions
		WHERE user_id = $1 AND lifted_at IS NULL AND deadline > $2
		ORDER BY created_at DESC
		LIMIT 1`, userID, now)

	var s repository.UserSuspension
	err := row.Scan(&s.ID, &s.UserID, &s.Reason, &s.Deadline, &s.AdminID, &s.LiftedAt, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}
