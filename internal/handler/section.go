package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/repository"
)

// SectionHandler covers named map subdivisions. Section names are unique
// within a map.
type SectionHandler struct {
	Sections *repository.SectionRepo
	Maps     *repository.MapRepo
}

func NewSectionHandler(s *repository.SectionRepo, m *repository.MapRepo) *SectionHandler {
	return &SectionHandler{Sections: s, Maps: m}
}

type sectionReq struct {
	Name string `json:"name"`
}

// Index lists the sections of a map, store owner or admin only.
func (h *SectionHandler) Index(c echo.Context) error {
	mapID, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Sections.ListByMap(ctx, mapID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sections failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Create adds a section to a map.
func (h *SectionHandler) Create(c echo.Context) error {
	mapID, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req sectionReq
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

	s, err := h.Sections.Create(ctx, mapID, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrSectionExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"errors": map[string]string{"name": "The name has already been taken."},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create section failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Update renames a section.
func (h *SectionHandler) Update(c echo.Context) error {
	mapID, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	s, code, err := h.loadSection(c, mapID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req sectionReq
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

	taken, err := h.Sections.NameExists(ctx, mapID, req.Name, s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "name lookup failed"})
	}
	if taken {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string]string{"name": "The name has already been taken."},
		})
	}

	if err := h.Sections.Update(ctx, s.ID, req.Name); err != nil {
		if errors.Is(err, repository.ErrSectionExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"errors": map[string]string{"name": "The name has already been taken."},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update section failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Section updated successfully"})
}

// Delete removes a section with the segments assigned to it and their
// products.
func (h *SectionHandler) Delete(c echo.Context) error {
	mapID, code, err := h.authorizeMap(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	s, code, err := h.loadSection(c, mapID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sections.Delete(ctx, s.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete section failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Section deleted successfully"})
}

// authorizeMap resolves the map in the path and requires the caller to own
// the store behind it, or be an admin.
func (h *SectionHandler) authorizeMap(c echo.Context) (uint64, int, error) {
	p, err := principal(c)
	if err != nil {
		return 0, http.StatusUnauthorized, errors.New("invalid token")
	}
	mapID, err := parseID(c, "id")
	if err != nil {
		return 0, http.StatusBadRequest, errors.New("invalid map id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Maps.OwnerID(ctx, mapID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return 0, http.StatusNotFound, errors.New("map not found")
		}
		return 0, http.StatusInternalServerError, errors.New("load map failed")
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return 0, http.StatusForbidden, errors.New(d.Reason)
	}
	return mapID, 0, nil
}

// loadSection loads the section from the path and checks it belongs to the
// map from the path.
func (h *SectionHandler) loadSection(c echo.Context, mapID uint64) (repository.Section, int, error) {
	id, err := parseID(c, "sectionId")
	if err != nil {
		return repository.Section{}, http.StatusBadRequest, errors.New("invalid section id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Sections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSectionNotFound) {
			return s, http.StatusNotFound, errors.New("section not found")
		}
		return s, http.StatusInternalServerError, errors.New("load section failed")
	}
	if s.MapID != mapID {
		return s, http.StatusBadRequest, errors.New("The given section does not belong to the given map")
	}
	return s, 0, nil
}
