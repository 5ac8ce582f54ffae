package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/authz"
	"github.com/iliyamo/swift-cart/internal/queue"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// ApplicationHandler covers the application lifecycle: apply, withdraw,
// accept, and the sent/received listings.
type ApplicationHandler struct {
	Applications *repository.ApplicationRepo
	Households   *repository.HouseholdRepo
}

func NewApplicationHandler(a *repository.ApplicationRepo, h *repository.HouseholdRepo) *ApplicationHandler {
	return &ApplicationHandler{Applications: a, Households: h}
}

// Store files an application of the caller to a household. A pair can hold
// at most one pending application, and never one alongside a membership.
func (h *ApplicationHandler) Store(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	householdID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Households.GetByID(ctx, householdID); err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}

	if err := h.Applications.Create(ctx, p.ID, householdID); err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This application already exists"})
		case errors.Is(err, repository.ErrAlreadyMember):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "The user is already in this household"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create application failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Application created successfully"})
}

// Withdraw removes the caller's own pending application to a household.
func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	householdID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Applications.Find(ctx, p.ID, householdID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load application failed"})
	}
	if err := h.Applications.Delete(ctx, a.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete application failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Application deleted successfully"})
}

// Destroy removes an application by id: the applicant withdrawing, the
// household owner rejecting, or an admin.
func (h *ApplicationHandler) Destroy(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, ownerID, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load application failed"})
	}

	// The applicant and the household owner both count as owners of the
	// application for deletion.
	owner := ownerID
	if p.ID == a.UserID {
		owner = a.UserID
	}
	if d := authz.Evaluate(p, authz.ActionDelete, authz.Resource{OwnerID: owner}, false); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Applications.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete application failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Application deleted successfully"})
}

// Accept turns an application into a membership, household owner or admin
// only. The membership insert and application delete run in one transaction.
func (h *ApplicationHandler) Accept(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, ownerID, err := h.Applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load application failed"})
	}
	if d := authz.Evaluate(p, authz.ActionUpdate, authz.Resource{OwnerID: ownerID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Applications.Accept(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		case errors.Is(err, repository.ErrAlreadyMember):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "The user is already in this household"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept application failed"})
	}

	if hh, err := h.Households.GetByID(ctx, a.HouseholdID); err == nil {
		publishHouseholdEvent(queue.HouseholdEvent{
			Kind:          queue.EventMemberJoined,
			HouseholdID:   hh.ID,
			HouseholdName: hh.Name,
			UserID:        a.UserID,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Application accepted successfully"})
}

// ListForHousehold returns the pending applications of a household, owner or
// admin only.
func (h *ApplicationHandler) ListForHousehold(c echo.Context) error {
	p, hh, code, err := h.loadHouseholdForOwner(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Applications.ListByHousehold(ctx, hh.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list applications failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// ListApplicants returns the applicant users of a household, owner or admin
// only.
func (h *ApplicationHandler) ListApplicants(c echo.Context) error {
	p, hh, code, err := h.loadHouseholdForOwner(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Applications.ListApplicants(ctx, hh.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list applicants failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// ListForUser returns the applications a user has sent, self or admin only.
func (h *ApplicationHandler) ListForUser(c echo.Context) error {
	p, userID, code, err := selfTarget(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := selfOrAdmin(p, userID); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Applications.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list applications failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// ListHouseholdsForUser returns the households a user has applied to, self
// or admin only.
func (h *ApplicationHandler) ListHouseholdsForUser(c echo.Context) error {
	p, userID, code, err := selfTarget(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := selfOrAdmin(p, userID); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Applications.ListHouseholdsByApplicant(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list households failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *ApplicationHandler) loadHouseholdForOwner(c echo.Context) (authz.Principal, repository.Household, int, error) {
	p, err := principal(c)
	if err != nil {
		return p, repository.Household{}, http.StatusUnauthorized, errors.New("invalid token")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return p, repository.Household{}, http.StatusBadRequest, errors.New("invalid household id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return p, hh, http.StatusNotFound, errors.New("household not found")
		}
		return p, hh, http.StatusInternalServerError, errors.New("load household failed")
	}
	return p, hh, 0, nil
}

func selfTarget(c echo.Context) (authz.Principal, uint64, int, error) {
	p, err := principal(c)
	if err != nil {
		return p, 0, http.StatusUnauthorized, errors.New("invalid token")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return p, 0, http.StatusBadRequest, errors.New("invalid user id")
	}
	return p, id, 0, nil
}
