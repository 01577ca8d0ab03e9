package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Roles. Root is an admin that may also perform destructive deletions.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleRoot  = "root"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the actor may use the back office.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleRoot
}

// IsRoot reports whether the actor may perform destructive actions.
func (a Actor) IsRoot() bool {
	return a.Role == RoleRoot
}

// User represents a registered gym member or staff account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Role      string    `json:"role"`
	Sex       *string   `json:"sex,omitempty"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Actor returns the user as an authenticated caller.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

// LoginRequest is the validated input for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse is the API response after successful login.
type LoginResponse struct {
	Token string       `json:"token,omitempty"`
	User  UserResponse `json:"user"`
}

// SignupRequest is the public registration input.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// JWTClaims represents the JWT payload.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Actor returns the caller described by the token.
func (c *JWTClaims) Actor() Actor {
	return Actor{ID: c.Sub, Email: c.Email, Role: c.Role}
}

// CreateUserRequest is the validated input for creating a user from the back office.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Sex      string `json:"sex" validate:"required,oneof=male female other"`
	Age      int    `json:"age" validate:"required,min=1,max=120"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin root"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin root"`
	Sex      *string `json:"sex" validate:"omitempty,oneof=male female other"`
	Age      *int    `json:"age" validate:"omitempty,min=1,max=120"`
}

// UserResponse is the safe API response for a user (no password).
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUserResponse strips private fields.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserSummary is one row of the back-office user list.
type UserSummary struct {
	UserResponse
	Subscription *Subscription `json:"subscription"`
	LastPayment  *PaymentOrder `json:"lastPayment"`
	TotalOrders  int           `json:"totalOrders"`
}

// UserDetail is the back-office view of a single user.
type UserDetail struct {
	*User
	Subscription  *Subscription   `json:"subscription"`
	PaymentOrders []*PaymentOrder `json:"paymentOrders"`
}

// UserFilter narrows the back-office user list.
type UserFilter struct {
	Search string
	Page   int
	Limit  int
}

// Page is a paginated list response.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPage wraps a result slice with pagination metadata.
func NewPage[T any](data []T, page, limit int, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Page[T]{Data: data, Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// DashboardStats is the back-office landing summary.
type DashboardStats struct {
	Users               int64           `json:"users"`
	ActiveSubscriptions int64           `json:"activeSubscriptions"`
	PendingOrders       int64           `json:"pendingOrders"`
	Revenue             decimal.Decimal `json:"revenue"`
	RecentOrders        []*PaymentOrder `json:"recentOrders"`
}

// NewID generates a new UUID for an entity.
func NewID() string {
	return uuid.New().String()
}
