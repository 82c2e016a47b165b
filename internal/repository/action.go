package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionRepository handles database operations for civic actions.
// The table is append-only; usage counts are derived, never stored.
type ActionRepository struct {
	db *pgxpool.Pool
}

// NewActionRepository creates a new ActionRepository.
func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

// Insert appends a new civic action.
func (r *ActionRepository) Insert(ctx context.Context, a *domain.CivicAction) error {
	query := `
		INSERT INTO civic_actions (id, user_id, title, description, category, impact_points, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.Description, a.Category, a.ImpactPoints, a.Verified, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert civic action: %w", err)
	}
	return nil
}

// CountSince counts a user's actions created at or after the given
// instant. The entitlement resolver passes the start of the current UTC
// calendar month.
func (r *ActionRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM civic_actions WHERE user_id = $1 AND created_at >= $2`
	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// ListByUser returns a user's most recent actions, newest first.
func (r *ActionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.CivicAction, error) {
	query := `
		SELECT id, user_id, title, description, category, impact_points, verified, created_at
		FROM civic_actions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*domain.CivicAction
	for rows.Next() {
		var a domain.CivicAction
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description,
			&a.Category, &a.ImpactPoints, &a.Verified, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, &a)
	}
	return actions, nil
}

// TrendingCategories returns the most frequent action categories since
// the given instant, most popular first.
func (r *ActionRepository) TrendingCategories(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT category FROM civic_actions
		WHERE created_at >= $1
		GROUP BY category ORDER BY COUNT(*) DESC LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// Leaderboard returns the top users by total impact points.
func (r *ActionRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT a.user_id, COALESCE(NULLIF(u.display_name, ''), u.email),
			SUM(a.impact_points), COUNT(*)
		FROM civic_actions a
		JOIN users u ON u.id = a.user_id
		GROUP BY a.user_id, u.display_name, u.email
		ORDER BY SUM(a.impact_points) DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.TotalPoints, &e.ActionCount); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, nil
}

// CountAll returns the total number of logged actions.
func (r *ActionRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM civic_actions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count all actions: %w", err)
	}
	return count, nil
}
