package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// ProductHandler covers products placed on map segments, plus the map-wide
// product listing and the segment-move endpoint.
type ProductHandler struct {
	Products *repository.ProductRepo
	Segments *repository.SegmentRepo
	Maps     *repository.MapRepo
	Stores   *repository.StoreRepo
}

func NewProductHandler(p *repository.ProductRepo, seg *repository.SegmentRepo, m *repository.MapRepo, st *repository.StoreRepo) *ProductHandler {
	return &ProductHandler{Products: p, Segments: seg, Maps: m, Stores: st}
}

type productReq struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Description *string `json:"description"`
	Price       int     `json:"price"`
}

type moveProductReq struct {
	SegmentID uint64 `json:"segment_id"`
}

// ListByMap returns every product on a map. Products of published stores are
// readable by anyone; otherwise store owner or admin only.
func (h *ProductHandler) ListByMap(c echo.Context) error {
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

	rows, err := h.Products.ListByMap(ctx, mapID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list products failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Create places a product on a segment, store owner or admin only.
func (h *ProductHandler) Create(c echo.Context) error {
	segmentID, code, err := h.authorizeSegment(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateProduct(req.Name, req.Brand, req.Description, req.Price); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	prod := repository.Product{
		Name:         req.Name,
		Brand:        req.Brand,
		Description:  req.Description,
		Price:        req.Price,
		MapSegmentID: segmentID,
	}
	if err := h.Products.Create(ctx, &prod); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, prod)
}

// Show returns one product of a segment.
func (h *ProductHandler) Show(c echo.Context) error {
	segmentID, code, err := h.authorizeSegment(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	prod, code, err := h.loadProduct(c, segmentID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, prod)
}

// Update rewrites a product.
func (h *ProductHandler) Update(c echo.Context) error {
	segmentID, code, err := h.authorizeSegment(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	prod, code, err := h.loadProduct(c, segmentID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateProduct(req.Name, req.Brand, req.Description, req.Price); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	prod.Name = req.Name
	prod.Brand = req.Brand
	prod.Description = req.Description
	prod.Price = req.Price
	if err := h.Products.Update(ctx, &prod); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product updated successfully"})
}

// Delete removes a product.
func (h *ProductHandler) Delete(c echo.Context) error {
	segmentID, code, err := h.authorizeSegment(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	prod, code, err := h.loadProduct(c, segmentID)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Products.Delete(ctx, prod.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// Move reassigns a product to another segment of the same map.
func (h *ProductHandler) Move(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	productID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req moveProductReq
	if err := c.Bind(&req); err != nil || req.SegmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "segment_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Products.OwnerID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return forbidden(c, d)
	}

	prod, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	current, err := h.Segments.GetByID(ctx, prod.MapSegmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load segment failed"})
	}
	target, err := h.Segments.GetByID(ctx, req.SegmentID)
	if err != nil {
		if errors.Is(err, repository.ErrSegmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "segment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load segment failed"})
	}
	if target.MapID != current.MapID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "The given segment does not belong to the given map"})
	}

	if err := h.Products.UpdateSegment(ctx, productID, req.SegmentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product updated successfully"})
}

// authorizeSegment resolves the segment in the path and requires the caller
// to own the store behind it, or be an admin.
func (h *ProductHandler) authorizeSegment(c echo.Context) (uint64, int, error) {
	p, err := principal(c)
	if err != nil {
		return 0, http.StatusUnauthorized, errors.New("invalid token")
	}
	segmentID, err := parseID(c, "id")
	if err != nil {
		return 0, http.StatusBadRequest, errors.New("invalid segment id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Segments.OwnerID(ctx, segmentID)
	if err != nil {
		if errors.Is(err, repository.ErrSegmentNotFound) {
			return 0, http.StatusNotFound, errors.New("segment not found")
		}
		return 0, http.StatusInternalServerError, errors.New("load segment failed")
	}
	if d := storeOwner(p, ownerID); !d.Allowed {
		return 0, http.StatusForbidden, errors.New(d.Reason)
	}
	return segmentID, 0, nil
}

// loadProduct loads the product from the path and checks it belongs to the
// segment from the path.
func (h *ProductHandler) loadProduct(c echo.Context, segmentID uint64) (repository.Product, int, error) {
	id, err := parseID(c, "productId")
	if err != nil {
		return repository.Product{}, http.StatusBadRequest, errors.New("invalid product id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	prod, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return prod, http.StatusNotFound, errors.New("product not found")
		}
		return prod, http.StatusInternalServerError, errors.New("load product failed")
	}
	if prod.MapSegmentID != segmentID {
		return prod, http.StatusBadRequest, errors.New("The given product does not belong to the given segment")
	}
	return prod, 0, nil
}
