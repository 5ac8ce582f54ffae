package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/authz"
	"github.com/iliyamo/swift-cart/internal/domain"
	"github.com/iliyamo/swift-cart/internal/repository"
)

// CommentHandler covers comments under groceries. Deleting a comment never
// removes the row: the content is replaced with a fixed placeholder so the
// thread keeps its shape.
type CommentHandler struct {
	Comments   *repository.CommentRepo
	Groceries  *repository.GroceryRepo
	Households *repository.HouseholdRepo
}

func NewCommentHandler(cm *repository.CommentRepo, g *repository.GroceryRepo, h *repository.HouseholdRepo) *CommentHandler {
	return &CommentHandler{Comments: cm, Groceries: g, Households: h}
}

type commentReq struct {
	Content string `json:"content"`
}

// Index lists the comments of a grocery for household members.
func (h *CommentHandler) Index(c echo.Context) error {
	p, g, member, hh, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionRead, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Comments.ListByGrocery(ctx, g.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list comments failed"})
	}
	return c.JSON(http.StatusOK, rows)
}

// Create adds a comment to a grocery; any household member may comment.
func (h *CommentHandler) Create(c echo.Context) error {
	p, g, member, hh, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	if d := authz.Evaluate(p, authz.ActionCreate, authz.Resource{OwnerID: hh.UserID, HouseholdID: hh.ID}, member); !d.Allowed {
		return forbidden(c, d)
	}

	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := domain.ValidateComment(req.Content); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Comments.Create(ctx, req.Content, g.ID, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": "Comment created successfully"})
}

// Delete redacts a comment. Allowed for admins, the comment's author, and
// ANY member of the household; this is deliberately broader than owner-only
// deletion. Repeating the call is harmless.
func (h *CommentHandler) Delete(c echo.Context) error {
	p, g, member, hh, code, err := h.loadScope(c)
	if err != nil {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}

	commentID, err := parseID(c, "commentId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load comment failed"})
	}
	if cm.GroceryID != g.ID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}

	// MemberWrite grants every household member redaction rights.
	if d := authz.Evaluate(p, authz.ActionDelete, authz.Resource{OwnerID: cm.UserID, HouseholdID: hh.ID, MemberWrite: true}, member); !d.Allowed {
		return forbidden(c, d)
	}

	if err := h.Comments.Redact(ctx, commentID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted successfully"})
}

// loadScope resolves the principal, the grocery and household from the path
// and the caller's membership.
func (h *CommentHandler) loadScope(c echo.Context) (authz.Principal, repository.Grocery, bool, repository.Household, int, error) {
	var (
		g  repository.Grocery
		hh repository.Household
	)
	p, err := principal(c)
	if err != nil {
		return p, g, false, hh, http.StatusUnauthorized, errors.New("invalid token")
	}
	householdID, err := parseID(c, "id")
	if err != nil {
		return p, g, false, hh, http.StatusBadRequest, errors.New("invalid household id")
	}
	groceryID, err := parseID(c, "groceryId")
	if err != nil {
		return p, g, false, hh, http.StatusBadRequest, errors.New("invalid grocery id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hh, err = h.Households.GetByID(ctx, householdID)
	if err != nil {
		if errors.Is(err, repository.ErrHouseholdNotFound) {
			return p, g, false, hh, http.StatusNotFound, errors.New("household not found")
		}
		return p, g, false, hh, http.StatusInternalServerError, errors.New("load household failed")
	}
	g, err = h.Groceries.GetByID(ctx, groceryID)
	if err != nil {
		if errors.Is(err, repository.ErrGroceryNotFound) {
			return p, g, false, hh, http.StatusNotFound, errors.New("grocery not found")
		}
		return p, g, false, hh, http.StatusInternalServerError, errors.New("load grocery failed")
	}
	if g.HouseholdID != hh.ID {
		return p, g, false, hh, http.StatusNotFound, errors.New("grocery not found")
	}
	member, err := h.Households.IsMember(ctx, p.ID, hh.ID)
	if err != nil {
		return p, g, false, hh, http.StatusInternalServerError, errors.New("membership lookup failed")
	}
	return p, g, member, hh, 0, nil
}
