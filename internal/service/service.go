package service

import (
	"time"

	"github.com/gymflow/backend/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderEvents receives order changes for live back-office listeners.
type OrderEvents interface {
	Publish(evt domain.OrderEvent)
}

// Clock returns the current time. Tests replace it to pin dates.
type Clock func() time.Time

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrUnauthorized("admin access required")
	}
	return nil
}

func requireRoot(actor domain.Actor) error {
	if !actor.IsRoot() {
		return domain.ErrForbidden("only root can perform this action")
	}
	return nil
}
