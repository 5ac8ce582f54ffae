package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// SegmentHandler covers the grid cells of a map. Coordinates must lie
// within the map bounds and an assigned section must belong to the same
// map.
type SegmentHandler struct {
	Segments *repository.SegmentRepo
	Sections *repository.SectionRepo
	Maps     *repository.MapRepo
	Stores   *repository.StoreRepo
}

func NewSegmentHandler(seg *repository.SegmentRepo, sec *repository.SectionRepo, m *repository.MapRepo, st *repository.StoreRepo) *SegmentHandler {
	return &SegmentHandler{Segments: seg, Sections: sec, Maps: m, Stores: st}
}

type segmentReq struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Type      string  `json:"type"`
	SectionID *uint64 `json:"section_id"`
}

// Index lists the segments of a map with their products. Maps of published
// stores are readable by anyone; otherwise store owner or admin only.
func (h *SegmentHandler) Index(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	mapID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid map id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maps.GetByID(ctx, mapID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "map not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load map failed"})
	}
	s, err := h.Stores.GetByID(ctx, m.StoreID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load store failed"})
	}
	if !s.Published {
		if d := storeOwner(p, s.UserID); !d.Allowed {
			return forbidden(c, d)
		}
	}

	rows, err := h.Segments.ListByMap(ctx, mapID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list segments failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Create adds a segment to a map.
func (h *SegmentHandler) Create(c echo.Context) error {
	m, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req segmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateSegment(req.X, req.Y, m.XSize, m.YSize, req.Type); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}
	if code, err := h.checkSection(c, m.ID, req.SectionID); err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	seg := repository.MapSegment{
		X:         req.X,
		Y:         req.Y,
		Type:      req.Type,
		SectionID: req.SectionID,
		MapID:     m.ID,
	}
	if err := h.Segments.Create(ctx, &seg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create segment failed"})
	}
	return c.JSON(http.StatusCreated, seg)
}

// Show returns one segment of a map.
func (h *SegmentHandler) Show(c echo.Context) error {
	m, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	seg, code, err := h.loadSegment(c, m.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, seg)
}

// Update rewrites a segment; the same bounds and section checks as Create
// apply.
func (h *SegmentHandler) Update(c echo.Context) error {
	m, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	seg, code, err := h.loadSegment(c, m.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req segmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateSegment(req.X, req.Y, m.XSize, m.YSize, req.Type); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}
	if code, err := h.checkSection(c, m.ID, req.SectionID); err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	seg.X = req.X
	seg.Y = req.Y
	seg.Type = req.Type
	seg.SectionID = req.SectionID
	if err := h.Segments.Update(ctx, &seg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update segment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Segment updated successfully"})
}

// Delete removes a segment with its products.
func (h *SegmentHandler) Delete(c echo.Context) error {
	m, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	seg, code, err := h.loadSegment(c, m.ID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Segments.Delete(ctx, seg.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete segment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Segment deleted successfully"})
}

// authorizeMap resolves the map in the path and requires the caller to own
// the store behind it, or be an admin. The map itself is returned because
// the bounds checks need its size.
func (h *SegmentHandler) authorizeMap(c echo.Context) (repository.StoreMap, int, error) {
	p, err := principal(c)
	if err != nil {
		return repository.StoreMap{}, http.StatusUnauthorized, errors.New("invalid token")
	}
	mapID, err := parseID(c, "id")
	if err != nil {
		return repository.StoreMap{}, http.StatusBadRequest, errors.New("invalid map id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maps.GetByID(ctx, mapID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return m, http.StatusNotFound, errors.New("map not found")
		}
		return m, http.StatusInternalServerError, errors.New("load map failed")
	}
	ownerID, err := h.Maps.OwnerID(ctx, mapID)
	if err != nil {
		return m, http.StatusInternalServerError, errors.New("load map failed")
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return m, http.StatusForbidden, errors.New(d.Reason)
	}
	return m, 0, nil
}

// loadSegment loads the segment from the path and checks it belongs to the
// map from the path.
func (h *SegmentHandler) loadSegment(c echo.Context, mapID uint64) (repository.MapSegment, int, error) {
	id, err := parseID(c, "segmentId")
	if err != nil {
		return repository.MapSegment{}, http.StatusBadRequest, errors.New("invalid segment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	seg, err := h.Segments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSegmentNotFound) {
			return seg, http.StatusNotFound, errors.New("segment not found")
		}
		return seg, http.StatusInternalServerError, errors.New("load segment failed")
	}
	if seg.MapID != mapID {
		return seg, http.StatusBadRequest, errors.New("The given segment does not belong to the given map")
	}
	return seg, 0, nil
}

// checkSection verifies a referenced section belongs to the same map.
func (h *SegmentHandler) checkSection(c echo.Context, mapID uint64, sectionID *uint64) (int, error) {
	if sectionID == nil {
		return 0, nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Sections.GetByID(ctx, *sectionID)
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return http.StatusNotFound, errors.New("section not found")
		}
		return http.StatusInternalServerError, errors.New("load section failed")
	}
	if s.MapID != mapID {
		return http.StatusBadRequest, errors.New("The given section does not belong to the given map")
	}
	return 0, nil
}
