package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/repository"
)

// StoreHandler covers stores: the public published listing, the owner's own
// store, and CRUD. Every user owns at most one store.
type StoreHandler struct {
	Stores    *repository.StoreRepo
	Locations *repository.LocationRepo
}

func NewStoreHandler(s *repository.StoreRepo, l *repository.LocationRepo) *StoreHandler {
	return &StoreHandler{Stores: s, Locations: l}
}

type storeReq struct {
	Name      string `json:"name"`
	Published *bool  `json:"published"`
}

// Index lists published stores that are ready to browse: they must have a
// location and a non-empty map. Searches name and address fields.
func (h *StoreHandler) Index(c echo.Context) error {
	page, perPage := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, total, err := h.Stores.SearchPublished(ctx, c.QueryParam("search"), page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return paginated(c, rows, total, page, perPage)
}

// Create makes a store for the caller; a second create is rejected.
func (h *StoreHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	var req storeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string]string{"name": "The name field is required."},
		})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Stores.Create(ctx, req.Name, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This user already has a store."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create store failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Show returns one store with its location. Unpublished stores are visible
// only to their owner and admins.
func (h *StoreHandler) Show(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load store failed"})
	}
	if !s.Published {
		if d := storeOwner(p, s.UserID); !d.Allowed {
			return forbidden(c, d)
		}
	}

	if loc, err := h.Locations.GetByStore(ctx, s.ID); err == nil {
		s.Location = &loc
	}
	return c.JSON(http.StatusOK, s)
}

// Update renames a store and toggles its published flag, owner or admin
// only.
func (h *StoreHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load store failed"})
	}
	if d := storeOwner(p, s.UserID); !d.Allowed {
		return forbidden(c, d)
	}

	var req storeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string]string{"name": "The name field is required."},
		})
	}
	published := s.Published
	if req.Published != nil {
		published = *req.Published
	}

	if err := h.Stores.Update(ctx, id, req.Name, published); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update store failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Store updated successfully"})
}

// Delete removes a store with its location, map, sections, segments and
// products, owner or admin only.
func (h *StoreHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Stores.OwnerID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load store failed"})
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Stores.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete store failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Store deleted successfully"})
}

// My returns the caller's own store, or 204 when they have none.
func (h *StoreHandler) My(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Stores.GetByUser(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load store failed"})
	}
	if loc, err := h.Locations.GetByStore(ctx, s.ID); err == nil {
		s.Location = &loc
	}
	return c.JSON(http.StatusOK, s)
}
