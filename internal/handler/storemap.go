package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// MapHandler covers the one-per-store map grid. Shrinking a map deletes
// every segment (and its products) that falls outside the new bounds.
type MapHandler struct {
	Maps     *repository.MapRepo
	Stores   *repository.StoreRepo
	Segments *repository.SegmentRepo
}

func NewMapHandler(m *repository.MapRepo, s *repository.StoreRepo, seg *repository.SegmentRepo) *MapHandler {
	return &MapHandler{Maps: m, Stores: s, Segments: seg}
}

type mapReq struct {
	XSize int `json:"x_size"`
	YSize int `json:"y_size"`
}

// Show returns the map of a store with its segments and their products.
// Maps of published stores are readable by anyone; otherwise owner or admin
// only.
func (h *MapHandler) Show(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	storeID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Stores.GetByID(ctx, storeID)
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

	m, err := h.Maps.GetByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "The map to this store does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load map failed"})
	}
	segments, err := h.Segments.ListByMap(ctx, m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list segments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       m.ID,
		"x_size":   m.XSize,
		"y_size":   m.YSize,
		"store_id": m.StoreID,
		"segments": segments,
	})
}

// Create makes the map of a store; a second create is rejected.
func (h *MapHandler) Create(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req mapReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateMapSize(req.XSize, req.YSize); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maps.Create(ctx, storeID, req.XSize, req.YSize)
	if err != nil {
		if errors.Is(err, repository.ErrMapExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "The map to this store already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create map failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

// Update resizes the map. Segments at x >= new x_size or y >= new y_size
// are deleted together with their products, in the same transaction as the
// size change.
func (h *MapHandler) Update(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req mapReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateMapSize(req.XSize, req.YSize); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maps.GetByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "The map to this store does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load map failed"})
	}
	if err := h.Maps.Resize(ctx, m.ID, req.XSize, req.YSize); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resize map failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Map updated successfully"})
}

// Delete removes the map of a store with all its sections, segments and
// products.
func (h *MapHandler) Delete(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maps.GetByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "The map to this store does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load map failed"})
	}
	if err := h.Maps.Delete(ctx, m.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete map failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Map deleted successfully"})
}

func (h *MapHandler) authorizeStore(c echo.Context) (uint64, int, error) {
	p, err := principal(c)
	if err != nil {
		return 0, http.StatusUnauthorized, errors.New("invalid token")
	}
	storeID, err := parseID(c, "id")
	if err != nil {
		return 0, http.StatusBadRequest, errors.New("invalid store id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Stores.OwnerID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return 0, http.StatusNotFound, errors.New("store not found")
		}
		return 0, http.StatusInternalServerError, errors.New("load store failed")
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return 0, http.StatusForbidden, errors.New(d.Reason)
	}
	return storeID, 0, nil
}
