package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles authentication, JWT, and user management.
type AuthService struct {
	store     repository.Store
	jwtSecret string
	userTTL   time.Duration
	adminTTL  time.Duration
	now       Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, jwtSecret string, userTTL, adminTTL time.Duration, now Clock) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: jwtSecret,
		userTTL:   userTTL,
		adminTTL:  adminTTL,
		now:       now,
	}
}

// AdminTokenTTL is the lifetime of back-office session tokens.
func (s *AuthService) AdminTokenTTL() time.Duration {
	return s.adminTTL
}

// SeedRoot creates the root account if it doesn't exist.
func (s *AuthService) SeedRoot(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check root existence: %w", err)
	}
	if existing != nil {
		if existing.Role != domain.RoleRoot {
			slog.Warn("seed account exists without root role", "email", email, "role", existing.Role)
		}
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash root password: %w", err)
	}

	now := s.now()
	root := &domain.User{
		ID:        domain.NewID(),
		Name:      "Root",
		Email:     email,
		Password:  hash,
		Role:      domain.RoleRoot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users().Create(ctx, root); err != nil {
		return fmt.Errorf("failed to create root user: %w", err)
	}

	slog.Info("root user created", "email", email)
	return nil
}

// Signup registers a member account and logs it in.
func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.store.Users().Exists(ctx, email)
	if err != nil {
		return nil, domain.ErrInternal("failed to check user", err)
	}
	if exists {
		return nil, domain.ErrBadRequest("email already registered")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}

	now := s.now()
	user := &domain.User{
		ID:        domain.NewID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  hash,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}
	return s.issue(user, s.userTTL)
}

// Login validates credentials and returns a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user, s.userTTL)
}

// AdminLogin is Login restricted to admin and root accounts, with the
// shorter back-office token lifetime.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.Actor().IsAdmin() {
		return nil, domain.ErrUnauthorized("admin access required")
	}
	return s.issue(user, s.adminTTL)
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User, ttl time.Duration) (*domain.LoginResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, domain.ErrInternal("failed to sign token", err)
	}

	return &domain.LoginResponse{
		Token: signed,
		User:  domain.NewUserResponse(user),
	}, nil
}

// VerifyToken validates a JWT token and returns the claims.
func (s *AuthService) VerifyToken(tokenStr string) (*domain.JWTClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, domain.ErrUnauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}

	c := &domain.JWTClaims{
		Sub:   getClaimString(claims, "sub"),
		Email: getClaimString(claims, "email"),
		Name:  getClaimString(claims, "name"),
		Role:  getClaimString(claims, "role"),
	}
	if c.Sub == "" {
		return nil, domain.ErrUnauthorized("invalid token claims")
	}
	return c, nil
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*domain.UserResponse, error) {
	user, err := s.findUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	resp := domain.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) findUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
