package customer

import (
	"net/http"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/KOMKZ/yogan-market/validator"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WishlistRequest PUT /wishlist body
type WishlistRequest struct {
	Product event.Product `json:"product"`
}

// Validate checks the request
func (r WishlistRequest) Validate() error {
	return r.Product.Validate()
}

// CartRequest PUT /cart body
type CartRequest struct {
	Product event.Product `json:"product"`
	Qty     int           `json:"qty"`
}

// Validate checks the request
func (r CartRequest) Validate() error {
	if err := r.Product.Validate(); err != nil {
		return err
	}
	return validation.Validate(r.Qty, validation.Min(0))
}

// Handler customer HTTP API; every route needs an authenticated user
type Handler struct {
	svc *Service
}

// NewHandler creates the HTTP handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/profile", h.getProfile)
	r.PUT("/wishlist", h.putWishlist)
	r.DELETE("/wishlist/:id", h.deleteWishlist)
	r.PUT("/cart", h.putCart)
	r.DELETE("/cart/:id", h.deleteCart)
}

func (h *Handler) getProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	p, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) putWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req WishlistRequest
	if !bind(c, &req) {
		return
	}

	p, err := h.svc.UpdateWishlist(c.Request.Context(), userID, req.Product, false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Wishlist)
}

func (h *Handler) deleteWishlist(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	p, err := h.svc.UpdateWishlist(c.Request.Context(), userID, event.Product{ID: c.Param("id")}, true)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Wishlist)
}

func (h *Handler) putCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CartRequest
	if !bind(c, &req) {
		return
	}

	p, err := h.svc.UpdateCart(c.Request.Context(), userID, req.Product, req.Qty, false)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Cart)
}

func (h *Handler) deleteCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	p, err := h.svc.UpdateCart(c.Request.Context(), userID, event.Product{ID: c.Param("id")}, 0, true)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Cart)
}

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		writeError(c, errcode.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// bind decodes the JSON body into req and validates it
func bind(c *gin.Context, req validation.Validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, errcode.ErrInvalidRequest.WithMsgf("invalid body: %v", err))
		return false
	}
	if err := validator.ValidateRequest(req); err != nil {
		writeError(c, err)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	layered, ok := errcode.As(err)
	if !ok {
		layered = errcode.ErrStorage.Wrap(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(layered.HTTPStatus(), layered.Body())
}
