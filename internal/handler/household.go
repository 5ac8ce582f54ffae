package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/authz"
	"github.com/iliyamo/swift-cart/internal/queue"
	"github.com/iliyamo/swift-cart/internal/repository"
	queue_publisher "github.com/iliyamo/swift-cart/internal/service"

	"github.com/iliyamo/swift-cart/internal/domain"
)

// HouseholdHandler covers household CRUD, member listing, the relationship
// lookup and member removal with its transfer-or-delete rule.
type HouseholdHandler struct {
	Households   *repository.HouseholdRepo
	Applications *repository.ApplicationRepo
}

func NewHouseholdHandler(h *repository.HouseholdRepo, a *repository.ApplicationRepo) *HouseholdHandler {
	return &HouseholdHandler{Households: h, Applications: a}
}

type householdReq struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// householdView is a household row with the caller's relationship label
// embedded; both listings serialize this shape so clients can tell at a
// glance which households they own, belong to, or have applied to.
type householdView struct {
	repository.Household
	Relationship authz.Relationship `json:"relationship"`
}

// Index is the paginated household search used to find households to apply
// to; any authenticated user may call it.
func (h *HouseholdHandler) Index(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	page, perPage := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Households.Search(ctx, c.QueryParam("search"), page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	views, err := h.classifyRows(ctx, p, rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return paginated(c, views, total, page, perPage)
}

// classifyRows attaches the caller's relationship to each household in the
// page. Membership and application labels come from two batched lookups.
func (h *HouseholdHandler) classifyRows(ctx context.Context, p authz.Principal, rows []repository.Household) ([]householdView, error) {
	ids := make([]uint64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	members, err := h.Households.MemberSet(ctx, p.ID, ids)
	if err != nil {
		return nil, err
	}
	applied, err := h.Applications.AppliedSet(ctx, p.ID, ids)
	if err != nil {
		return nil, err
	}
	views := make([]householdView, len(rows))
	for i, hh := range rows {
		views[i] = householdView{
			Household:    hh,
			Relationship: authz.Classify(hh.UserID, p.ID, members[hh.ID], applied[hh.ID]),
		}
	}
	return views, nil
}

// Create makes a new household with the caller as owner. The household row
// and the owner's membership row are written in one transaction.
func (h *HouseholdHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	var req householdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateHousehold(req.Name, req.Identifier); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Households.CreateWithOwner(ctx, req.Name, req.Identifier, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrIdentifierExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"errors": map[string]string{"identifier": "The identifier has already been taken."},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create household failed"})
	}

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	// Capital "Message" is a long-standing quirk of this endpoint that
	// clients already depend on.
	return c.JSON(http.StatusCreated, echo.Map{
		"Message":   "Household created successfully",
		"household": hh,
	})
}

// Show returns one household. Households are discoverable through search, so
// reading one is open to any authenticated user.
func (h *HouseholdHandler) Show(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	return c.JSON(http.StatusOK, hh)
}

// Update renames a household, owner or admin only.
func (h *HouseholdHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	var req householdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateHousehold(req.Name, req.Identifier); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	if d := authz.Evaluate(p, authz.ActionUpdate, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Households.Update(ctx, id, req.Name, req.Identifier); err != nil {
		if errors.Is(err, repository.ErrIdentifierExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"errors": map[string]string{"identifier": "The identifier has already been taken."},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update household failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Household updated successfully"})
}

// Delete removes a household and everything under it, owner or admin only.
func (h *HouseholdHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	if d := authz.Evaluate(p, authz.ActionDelete, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Households.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete household failed"})
	}

	publishHouseholdEvent(queue.HouseholdEvent{
		Kind:          queue.EventHouseholdDeleted,
		HouseholdID:   hh.ID,
		HouseholdName: hh.Name,
		UserID:        p.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Household deleted successfully"})
}

// ListUsers returns the members of a household; members, owner and admins
// may read it.
func (h *HouseholdHandler) ListUsers(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	member, err := h.Households.IsMember(ctx, p.ID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	users, err := h.Households.ListUsers(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// Relationship classifies the caller against a household with one of the
// labels nonMember, member, owner or applied.
func (h *HouseholdHandler) Relationship(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	member, err := h.Households.IsMember(ctx, p.ID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
	}
	applied, err := h.Applications.HasApplied(ctx, p.ID, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "application lookup failed"})
	}

	rel := authz.Classify(hh.UserID, p.ID, member, applied)
	return c.JSON(http.StatusOK, echo.Map{"relationship": rel})
}

// ListByMember returns the households a user belongs to, self or admin only.
func (h *HouseholdHandler) ListByMember(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	userID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if d := selfOrAdmin(p, userID); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Households.ListByMember(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list households failed"})
	}
	// Labels are relative to the caller: an admin listing someone else's
	// households may well see nonMember rows.
	views, err := h.classifyRows(ctx, p, rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list households failed"})
	}
	return c.JSON(http.StatusOK, views)
}

// RemoveMember removes a user from a household. The owner (or an admin) may
// remove anyone; a member may remove themself. Removing the owner triggers
// the transfer-or-delete rule.
func (h *HouseholdHandler) RemoveMember(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid household id"})
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "household not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load household failed"})
	}
	// Self-removal counts as acting on one's own resource.
	owner := hh.UserID
	if targetID == p.ID {
		owner = p.ID
	}
	if d := authz.Evaluate(p, authz.ActionDelete, authz.Resource{OwnerID: owner, HouseholdID: hh.ID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	outcome, newOwnerID, err := h.Households.RemoveMember(ctx, id, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found in household"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove member failed"})
	}

	switch outcome {
	case repository.HouseholdDeleted:
		publishHouseholdEvent(queue.HouseholdEvent{
			Kind:          queue.EventHouseholdDeleted,
			HouseholdID:   hh.ID,
			HouseholdName: hh.Name,
			UserID:        targetID,
		})
		return c.JSON(http.StatusOK, echo.Map{"message": "Household deleted (only owner existed)."})
	case repository.OwnershipTransferred:
		publishHouseholdEvent(queue.HouseholdEvent{
			Kind:          queue.EventOwnerChanged,
			HouseholdID:   hh.ID,
			HouseholdName: hh.Name,
			UserID:        targetID,
			NewOwnerID:    newOwnerID,
		})
		return c.JSON(http.StatusOK, echo.Map{
			"message":      "Ownership transferred and user removed from household.",
			"new_owner_id": newOwnerID,
		})
	default:
		return c.JSON(http.StatusOK, echo.Map{"message": "User removed from household."})
	}
}

// publishHouseholdEvent fires the event in the background; broker failures
// never affect the request that triggered them.
func publishHouseholdEvent(ev queue.HouseholdEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishHouseholdEvent(ctx, ev)
	}()
}
