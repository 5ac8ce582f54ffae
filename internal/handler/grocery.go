package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/authz"
	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// GroceryHandler covers the grocery list of a household. Members read and
// create; mutation is restricted to the creating user and admins.
type GroceryHandler struct {
	Groceries  *repository.GroceryRepo
	Households *repository.HouseholdRepo
}

func NewGroceryHandler(g *repository.GroceryRepo, h *repository.HouseholdRepo) *GroceryHandler {
	return &GroceryHandler{Groceries: g, Households: h}
}

type groceryReq struct {
	Name        string  `json:"name"`
	Quantity    *int    `json:"quantity"`
	Unit        *string `json:"unit"`
	Description *string `json:"description"`
}

// Index lists the groceries of a household for its members.
func (h *GroceryHandler) Index(c echo.Context) error {
	p, hh, member, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Groceries.ListByHousehold(ctx, hh.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list groceries failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Show returns one grocery for household members.
func (h *GroceryHandler) Show(c echo.Context) error {
	p, hh, member, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	g, code, err := h.loadGrocery(c, hh.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, g)
}

// Create adds a grocery to a household; any member may create.
func (h *GroceryHandler) Create(c echo.Context) error {
	p, hh, member, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionCreate, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	var req groceryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := domain.ValidateGroceryPair(req.Quantity, req.Unit); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if fields := domain.ValidateGrocery(req.Name, req.Quantity, req.Unit, req.Description); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g := repository.Grocery{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Description: req.Description,
		HouseholdID: hh.ID,
		UserID:      p.ID,
	}
	if err := h.Groceries.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create grocery failed"})
	}
	return c.JSON(http.StatusCreated, g)
}

// Update rewrites a grocery; only its creator or an admin. Membership alone
// grants read, not mutation of another member's entry.
func (h *GroceryHandler) Update(c echo.Context) error {
	p, hh, _, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	g, code, err := h.loadGrocery(c, hh.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionUpdate, authz.Resource{OwnerID: g.UserID, HouseholdID: hh.ID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	var req groceryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := domain.ValidateGroceryPair(req.Quantity, req.Unit); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if fields := domain.ValidateGrocery(req.Name, req.Quantity, req.Unit, req.Description); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g.Name = req.Name
	g.Quantity = req.Quantity
	g.Unit = req.Unit
	g.Description = req.Description
	if err := h.Groceries.Update(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update grocery failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Grocery updated successfully"})
}

// Delete removes a grocery with its comments; only its creator or an admin.
func (h *GroceryHandler) Delete(c echo.Context) error {
	p, hh, _, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	g, code, err := h.loadGrocery(c, hh.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionDelete, authz.Resource{OwnerID: g.UserID, HouseholdID: hh.ID}, false); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Groceries.Delete(ctx, g.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete grocery failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Grocery deleted successfully"})
}

// loadScope resolves the principal, the household from the path and the
// caller's membership. Shared by every grocery endpoint.
func (h *GroceryHandler) loadScope(c echo.Context) (authz.Principal, repository.Household, bool, int, error) {
	p, err := principal(c)
	if err != nil {
		return p, repository.Household{}, false, http.StatusUnauthorized, errors.New("invalid token")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return p, repository.Household{}, false, http.StatusBadRequest, errors.New("invalid household id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err := h.Households.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return p, hh, false, http.StatusNotFound, errors.New("household not found")
		}
		return p, hh, false, http.StatusInternalServerError, errors.New("load household failed")
	}
	member, err := h.Households.IsMember(ctx, p.ID, id)
	if err != nil {
		return p, hh, false, http.StatusInternalServerError, errors.New("membership lookup failed")
	}
	return p, hh, member, 0, nil
}

// loadGrocery loads the grocery from the path and checks it belongs to the
// household from the path.
func (h *GroceryHandler) loadGrocery(c echo.Context, householdID uint64) (repository.Grocery, int, error) {
	id, err := parseID(c, "groceryId")
	if err != nil {
		return repository.Grocery{}, http.StatusBadRequest, errors.New("invalid grocery id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Groceries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGroceryNotFound) {
			return g, http.StatusNotFound, errors.New("grocery not found")
		}
		return g, http.StatusInternalServerError, errors.New("load grocery failed")
	}
	if g.HouseholdID != householdID {
		return g, http.StatusNotFound, errors.New("grocery not found")
	}
	return g, 0, nil
}
