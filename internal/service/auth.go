package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long an issued session token stays valid.
const tokenTTL = 7 * 24 * time.Hour

// AuthService owns credentials, session tokens, and user administration.
type AuthService struct {
	jwtSecret     []byte
	adminEmail    string
	adminPassword string
	userRepo      *repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(jwtSecret, adminEmail, adminPassword string, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{
		jwtSecret:     []byte(jwtSecret),
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		userRepo:      userRepo,
	}
}

// sessionClaims is the signed token payload.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// newUser builds a user record with a bcrypt-hashed password. Every new
// account starts on the Free tier with no subscription.
func newUser(email, password, displayName, role string) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now()
	return &domain.User{
		ID:          domain.NewUserID(),
		Email:       email,
		Password:    string(hashed),
		DisplayName: displayName,
		Role:        role,
		Tier:        domain.TierFree,
		Status:      domain.StatusNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SeedAdmin ensures the configured admin account exists.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	exists, err := s.userRepo.Exists(ctx, s.adminEmail)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return nil
	}

	admin, err := newUser(s.adminEmail, s.adminPassword, "Admin", "admin")
	if err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("admin user created (%s)", s.adminEmail)
	return nil
}

// Register creates an account and logs it straight in.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	exists, err := s.userRepo.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrBadRequest("email already registered")
	}

	user, err := newUser(req.Email, req.Password, req.DisplayName, "user")
	if err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	return s.issueToken(user)
}

// Login checks credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *domain.User) (*domain.LoginResponse, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}
	return &domain.LoginResponse{
		Token: signed,
		User: domain.LoginUser{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		},
	}, nil
}

// VerifyToken parses and validates a session token.
func (s *AuthService) VerifyToken(tokenStr string) (*domain.JWTClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized("invalid or expired token")
	}
	return &domain.JWTClaims{
		Sub:   claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// ListUsers returns every account, without password material.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.UserResponse, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list users", err)
	}
	out := make([]*domain.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out, nil
}

// CreateUser provisions an account on behalf of an admin.
func (s *AuthService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserResponse, error) {
	exists, err := s.userRepo.Exists(ctx, req.Email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrBadRequest("email already registered")
	}

	role := req.Role
	if role == "" {
		role = "user"
	}
	user, err := newUser(req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	return toUserResponse(user), nil
}

// DeleteUser removes an account. Admin accounts cannot be deleted.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return domain.ErrNotFound("user not found")
	}
	if user.Role == "admin" {
		return domain.ErrBadRequest("cannot delete admin user")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return domain.ErrInternal("failed to delete user", err)
	}
	return nil
}

// GetUserByID returns one account profile.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *domain.User) *domain.UserResponse {
	return &domain.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Tier:        u.Tier,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}
