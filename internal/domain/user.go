package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the local view of a user's billing state.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusNone     SubscriptionStatus = "none"
)

// User represents a registered user together with their current plan
// state. The plan fields are written only by the billing event processor
// (and the dev simulation endpoint); everything else reads them.
type User struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	Password       string             `json:"-"` // bcrypt hash, never serialized
	DisplayName    string             `json:"displayName"`
	Role           string             `json:"role"`
	Tier           string             `json:"tier"`
	Status         SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionID *string            `json:"subscriptionId,omitempty"` // provider id, nil on Free
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// PlanState is the (tier, status, subscription id) triple owned by the
// billing event processor.
type PlanState struct {
	Tier           string             `json:"tier"`
	Status         SubscriptionStatus `json:"status"`
	SubscriptionID *string            `json:"subscriptionId"`
}

// RegisterRequest is the validated input for signup.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"omitempty,max=80"`
}

// LoginRequest is the validated input for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the user info returned after login.
type LoginUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// JWTClaims represents the JWT payload.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUserRequest is the validated input for admin user creation.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"omitempty,max=80"`
	Role        string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UserResponse is the safe API response for a user (no password).
type UserResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	DisplayName string             `json:"displayName"`
	Role        string             `json:"role"`
	Tier        string             `json:"tier"`
	Status      SubscriptionStatus `json:"subscriptionStatus"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// NewUserID generates a new UUID for a user.
func NewUserID() string {
	return uuid.New().String()
}
