package handler

import (
	"net/http"
	"strconv"

	"github.com/gymflow/backend/internal/contextkeys"
	"github.com/gymflow/backend/internal/domain"
)

func actorFrom(r *http.Request) (domain.Actor, error) {
	actor, ok := contextkeys.Actor(r.Context())
	if !ok || actor.ID == "" {
		return domain.Actor{}, domain.ErrUnauthorized("unauthorized")
	}
	return actor, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
