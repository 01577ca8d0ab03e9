package service

import (
	"context"
	"fmt"

	"github.com/gymflow/backend/internal/domain"
	"github.com/gymflow/backend/internal/logger"
)

// minPasswordLength matches the back-office user forms.
const minPasswordLength = 6

// ListUsers returns one page of users with their membership summary.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor, f domain.UserFilter) (domain.Page[*domain.UserSummary], error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Page[*domain.UserSummary]{}, err
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)

	users, total, err := s.store.Users().List(ctx, f)
	if err != nil {
		return domain.Page[*domain.UserSummary]{}, domain.ErrInternal("failed to list users", err)
	}

	summaries := make([]*domain.UserSummary, 0, len(users))
	for _, u := range users {
		sub, err := s.store.Subscriptions().FindByUserID(ctx, u.ID)
		if err != nil {
			return domain.Page[*domain.UserSummary]{}, domain.ErrInternal("failed to find subscription", err)
		}
		orders, err := s.store.Orders().ListByUser(ctx, u.ID)
		if err != nil {
			return domain.Page[*domain.UserSummary]{}, domain.ErrInternal("failed to list orders", err)
		}

		summary := &domain.UserSummary{
			UserResponse: domain.NewUserResponse(u),
			Subscription: sub,
			TotalOrders:  len(orders),
		}
		if len(orders) > 0 {
			summary.LastPayment = orders[0]
		}
		summaries = append(summaries, summary)
	}
	return domain.NewPage(summaries, f.Page, f.Limit, total), nil
}

// GetUserDetail returns a user with subscription and order history.
func (s *AuthService) GetUserDetail(ctx context.Context, actor domain.Actor, id string) (*domain.UserDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.Subscriptions().FindByUserID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to find subscription", err)
	}
	orders, err := s.store.Orders().ListByUser(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to list orders", err)
	}
	if orders == nil {
		orders = []*domain.PaymentOrder{}
	}
	return &domain.UserDetail{User: user, Subscription: sub, PaymentOrders: orders}, nil
}

// CreateUser creates an account from the back office. Only root may
// create other root accounts.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Actor, req *domain.CreateUserRequest) (*domain.UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role == domain.RoleRoot && !actor.IsRoot() {
		return nil, domain.ErrForbidden("only root can create root users")
	}

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
	sex, age := req.Sex, req.Age
	user := &domain.User{
		ID:        domain.NewID(),
		Name:      req.Name,
		Email:     email,
		Password:  hash,
		Role:      role,
		Sex:       &sex,
		Age:       &age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to create user", err)
	}

	logger.FromContext(ctx).Info("user created", "user_id", user.ID, "role", role, "admin", actor.Email)
	resp := domain.NewUserResponse(user)
	return &resp, nil
}

// UpdateUser applies a partial update. Root accounts and root role
// assignments are reserved to root.
func (s *AuthService) UpdateUser(ctx context.Context, actor domain.Actor, id string, req *domain.UpdateUserRequest) (*domain.UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsRoot() && (user.Role == domain.RoleRoot || (req.Role != nil && *req.Role == domain.RoleRoot)) {
		return nil, domain.ErrForbidden("only root can manage root users")
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			exists, err := s.store.Users().Exists(ctx, email)
			if err != nil {
				return nil, domain.ErrInternal("failed to check user", err)
			}
			if exists {
				return nil, domain.ErrBadRequest("email already registered")
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Sex != nil {
		user.Sex = req.Sex
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, domain.ErrInternal("failed to hash password", err)
		}
		user.Password = hash
	}
	user.UpdatedAt = s.now()

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to update user", err)
	}
	resp := domain.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user with their orders and subscription. Root only,
// and never the caller's own account.
func (s *AuthService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireRoot(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return domain.ErrBadRequest("cannot delete your own account")
	}
	deleted, err := s.store.Users().Delete(ctx, id)
	if err != nil {
		return domain.ErrInternal("failed to delete user", err)
	}
	if !deleted {
		return domain.ErrNotFound("user not found")
	}
	logger.FromContext(ctx).Warn("user deleted", "user_id", id, "root", actor.Email)
	return nil
}

// Promote sets the role of the account with email. Used by the maintenance CLI.
func (s *AuthService) Promote(ctx context.Context, email, role string) (*domain.User, error) {
	switch role {
	case domain.RoleUser, domain.RoleAdmin, domain.RoleRoot:
	default:
		return nil, domain.ErrBadRequest("role must be one of user, admin, root")
	}
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to update user", err)
	}
	return user, nil
}

// ResetPassword replaces the password of the account with email. Used by the
// maintenance CLI when an administrator is locked out.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if len(password) < minPasswordLength {
		return nil, domain.ErrBadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, domain.ErrInternal("failed to find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, domain.ErrInternal("failed to hash password", err)
	}
	user.Password = hash
	user.UpdatedAt = s.now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, domain.ErrInternal("failed to update user", err)
	}
	return user, nil
}
