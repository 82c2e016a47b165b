package domain

import (
	"time"

	"github.com/google/uuid"
)

// CivicAction is one logged community action. Rows are append-only; the
// current month's count per user is the quota meter.
type CivicAction struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	ImpactPoints int       `json:"impactPoints"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateActionRequest is the validated input for logging an action.
type CreateActionRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"required,max=50"`
}

// categoryPoints maps action categories to their impact point values.
var categoryPoints = map[string]int{
	"Mutual Aid":         12,
	"Sustainability":     15,
	"Housing":            13,
	"Education":          10,
	"Arts & Culture":     10,
	"Food Security":      12,
	"Health & Wellness":  11,
	"Infrastructure":     14,
	"Advocacy":           13,
	"Emergency Response": 15,
}

// defaultPoints is awarded for categories outside the known set.
const defaultPoints = 10

// PointsForCategory returns the impact points awarded for a category.
func PointsForCategory(category string) int {
	if pts, ok := categoryPoints[category]; ok {
		return pts
	}
	return defaultPoints
}

// ActionCategories returns the known category names.
func ActionCategories() []string {
	return []string{
		"Mutual Aid",
		"Sustainability",
		"Housing",
		"Education",
		"Arts & Culture",
		"Food Security",
		"Health & Wellness",
		"Infrastructure",
		"Advocacy",
		"Emergency Response",
	}
}

// LeaderboardEntry is one row of the community leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TotalPoints int    `json:"totalPoints"`
	ActionCount int    `json:"actionCount"`
}

// NewActionID generates a new UUID for a civic action.
func NewActionID() string {
	return uuid.New().String()
}
