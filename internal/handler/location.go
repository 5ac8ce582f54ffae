package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// LocationHandler covers the one-per-store location plus the distinct-value
// lookups used to drill down country -> city -> street -> detail.
type LocationHandler struct {
	Locations *repository.LocationRepo
	Stores    *repository.StoreRepo
}

func NewLocationHandler(l *repository.LocationRepo, s *repository.StoreRepo) *LocationHandler {
	return &LocationHandler{Locations: l, Stores: s}
}

type locationReq struct {
	Country string  `json:"country"`
	ZipCode string  `json:"zip_code"`
	City    string  `json:"city"`
	Street  string  `json:"street"`
	Detail  *string `json:"detail"`
}

// Show returns the location of a store, owner or admin only.
func (h *LocationHandler) Show(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	loc, err := h.Locations.GetByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load location failed"})
	}
	return c.JSON(http.StatusOK, loc)
}

// Create sets the location of a store; a second create is rejected.
func (h *LocationHandler) Create(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateLocation(req.Country, req.ZipCode, req.City, req.Street); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	loc := repository.Location{
		Country: req.Country,
		ZipCode: req.ZipCode,
		City:    req.City,
		Street:  req.Street,
		Detail:  req.Detail,
		StoreID: storeID,
	}
	if err := h.Locations.Create(ctx, &loc); err != nil {
		if errors.Is(err, repository.ErrLocationExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This store already has a location."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create location failed"})
	}
	return c.JSON(http.StatusCreated, loc)
}

// Update rewrites the location of a store.
func (h *LocationHandler) Update(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateLocation(req.Country, req.ZipCode, req.City, req.Street); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	loc := repository.Location{
		Country: req.Country,
		ZipCode: req.ZipCode,
		City:    req.City,
		Street:  req.Street,
		Detail:  req.Detail,
		StoreID: storeID,
	}
	if err := h.Locations.Update(ctx, &loc); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update location failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Location updated successfully"})
}

// Delete removes the location of a store.
func (h *LocationHandler) Delete(c echo.Context) error {
	storeID, code, err := h.authorizeStore(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Locations.Delete(ctx, storeID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete location failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Location deleted successfully"})
}

// ----- distinct-value lookups -----

// Countries lists every country with at least one store location.
func (h *LocationHandler) Countries(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	vals, err := h.Locations.DistinctCountries(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, vals)
}

// Cities lists the cities of a country; ?country= is required.
func (h *LocationHandler) Cities(c echo.Context) error {
	country := c.QueryParam("country")
	if country == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required query parameter(s)"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	vals, err := h.Locations.DistinctCities(ctx, country)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, vals)
}

// Streets lists the streets of a city; ?country= and ?city= are required.
func (h *LocationHandler) Streets(c echo.Context) error {
	country, city := c.QueryParam("country"), c.QueryParam("city")
	if country == "" || city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required query parameter(s)"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	vals, err := h.Locations.DistinctStreets(ctx, country, city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, vals)
}

// Details lists the address details of a street; ?country=, ?city= and
// ?street= are required.
func (h *LocationHandler) Details(c echo.Context) error {
	country, city, street := c.QueryParam("country"), c.QueryParam("city"), c.QueryParam("street")
	if country == "" || city == "" || street == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required query parameter(s)"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	vals, err := h.Locations.DistinctDetails(ctx, country, city, street)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, vals)
}

// authorizeStore resolves the store in the path and requires the caller to
// be its owner or an admin.
func (h *LocationHandler) authorizeStore(c echo.Context) (uint64, int, error) {
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
