package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/pkg/ai"
)

// TrendStore exposes the community-wide category trend query.
type TrendStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.CivicAction, error)
	TrendingCategories(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// Recommendation is one AI-suggested civic action.
type Recommendation struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	EstimatedImpact int    `json:"estimated_impact"`
	Urgency         string `json:"urgency"`
	TimeCommitment  string `json:"time_commitment"`
}

// RecommendationResponse is the generated recommendation set.
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// RecommendationService generates personalized action suggestions from
// the user's history and the week's trending categories. Gated by the
// AI recommendations entitlement.
type RecommendationService struct {
	entitlements *EntitlementService
	actions      TrendStore
	generator    ai.TextGenerator
	now          func() time.Time
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(entitlements *EntitlementService, actions TrendStore, generator ai.TextGenerator) *RecommendationService {
	return &RecommendationService{
		entitlements: entitlements,
		actions:      actions,
		generator:    generator,
		now:          time.Now,
	}
}

// Recommend produces up to three suggestions for the user. A denied
// entitlement is returned as a decision with a nil response.
func (s *RecommendationService) Recommend(ctx context.Context, userID, location string) (*RecommendationResponse, domain.Decision, error) {
	decision, err := s.entitlements.CheckPermission(ctx, userID, domain.ActionAIRequest)
	if err != nil {
		return nil, domain.Decision{}, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	recent, err := s.actions.ListByUser(ctx, userID, 10)
	if err != nil {
		return nil, domain.Decision{}, fmt.Errorf("failed to load action history: %w", err)
	}
	trending, err := s.actions.TrendingCategories(ctx, s.now().Add(-7*24*time.Hour), 3)
	if err != nil {
		return nil, domain.Decision{}, fmt.Errorf("failed to load trending categories: %w", err)
	}

	text, err := s.generator.GenerateText(ctx, buildPrompt(recent, trending, location))
	if err != nil {
		return nil, domain.Decision{}, domain.ErrInternal("failed to generate recommendations", err)
	}

	var resp RecommendationResponse
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &resp); err != nil {
		return nil, domain.Decision{}, domain.ErrInternal("failed to parse recommendations", err)
	}
	return &resp, decision, nil
}

func buildPrompt(recent []*domain.CivicAction, trending []string, location string) string {
	var history strings.Builder
	for _, a := range recent {
		fmt.Fprintf(&history, "- %s (%s, %d points)\n", a.Title, a.Category, a.ImpactPoints)
	}
	if history.Len() == 0 {
		history.WriteString("None yet\n")
	}

	trendLine := strings.Join(trending, ", ")
	if trendLine == "" {
		trendLine = "None"
	}
	if location == "" {
		location = "Not specified"
	}

	return fmt.Sprintf(`You are a civic engagement advisor. Based on the following user data, suggest 3 specific, actionable civic actions they should take next.

User's Recent Actions:
%s
Trending Categories This Week:
%s

User Location: %s

Provide 3 personalized recommendations in the following JSON format:
{
  "recommendations": [
    {
      "title": "Action title",
      "category": "Category name",
      "description": "Why this is a good fit for the user",
      "estimated_impact": 10-15,
      "urgency": "low|medium|high",
      "time_commitment": "15 minutes|1 hour|etc"
    }
  ]
}

Make recommendations specific, actionable, and diverse across categories. Consider their history but also encourage trying new things.`,
		history.String(), trendLine, location)
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
