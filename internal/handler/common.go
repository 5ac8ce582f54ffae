package handler // handler defines the HTTP endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/authz"
)

const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context for the datastore round-trip of one
// request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the raw claim value, which arrives as float64
// after JSON decoding.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// principal builds the authorization principal for the current request from
// the claims the JWT middleware placed in the context. Every authorization
// decision receives this value explicitly; no handler reads auth state from
// anywhere else.
func principal(c echo.Context) (authz.Principal, error) {
	uid, err := getUserID(c)
	if err != nil {
		return authz.Principal{}, err
	}
	role, _ := c.Get("role").(string)
	return authz.Principal{ID: uid, Admin: role == "ADMIN"}, nil
}

func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParams reads the ?page= and ?per_page= query parameters with the
// defaults the listing endpoints share.
func pageParams(c echo.Context) (page, perPage int) {
	page, perPage = 1, 10
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// paginated wraps rows in the {data, meta} envelope used by the listing
// endpoints.
func paginated(c echo.Context, rows interface{}, total, page, perPage int) error {
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": rows,
		"meta": echo.Map{
			"total":     total,
			"page":      page,
			"per_page":  perPage,
			"last_page": lastPage,
		},
	})
}

func forbidden(c echo.Context, d authz.Decision) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": d.Reason})
}

// selfOrAdmin is the rule guarding the /users/:id endpoints.
func selfOrAdmin(p authz.Principal, targetID uint64) authz.Decision {
	return authz.Evaluate(p, authz.ActionUpdate, authz.Resource{OwnerID: targetID}, false)
}

// storeOwner resolves the standard store-scoped rule: the transitive owner
// of the resource, or an admin.
func storeOwner(p authz.Principal, ownerID uint64) authz.Decision {
	return authz.Evaluate(p, authz.ActionUpdate, authz.Resource{OwnerID: ownerID}, false)
}
