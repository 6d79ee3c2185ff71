package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qgsape/internal/cart"
	"qgsape/internal/service"
)

// @Summary Create an empty cart
// @Tags cart
// @Produce json
// @Success 201 {object} service.CartView
// @Router /carts [post]
func (s *Server) createCart(c *gin.Context) {
	c.JSON(http.StatusCreated, s.svc.Carts.Create(c))
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Param id path string true "Cart ID"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /carts/{id} [get]
func (s *Server) getCart(c *gin.Context) {
	v, err := s.svc.Carts.Get(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Add a product size to the cart
// @Description Adding the same product, size and color again merges the quantities.
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart ID"
// @Param input body service.AddItemInput true "Line"
// @Success 200 {object} service.CartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /carts/{id}/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req service.AddItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	v, err := s.svc.Carts.AddItem(c, c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type updateLineReq struct {
	cart.LineKey
	Quantity int64 `json:"quantity"`
}

// @Summary Change a line quantity
// @Description A quantity of zero removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart ID"
// @Param input body updateLineReq true "Line"
// @Success 200 {object} service.CartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /carts/{id}/items [patch]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateLineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	v, err := s.svc.Carts.UpdateItem(c, c.Param("id"), req.LineKey, req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Remove a line
// @Tags cart
// @Produce json
// @Param id path string true "Cart ID"
// @Param productId query string true "Product ID"
// @Param size query string true "Size"
// @Param color query string false "Color"
// @Success 200 {object} service.CartView
// @Failure 404 {object} map[string]string
// @Router /carts/{id}/items [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	key := cart.LineKey{ProductID: c.Query("productId"), Size: c.Query("size"), Color: c.Query("color")}
	if key.ProductID == "" || key.Size == "" {
		badRequest(c, "productId and size are required")
		return
	}
	v, err := s.svc.Carts.RemoveItem(c, c.Param("id"), key)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type applyCouponReq struct {
	Code     string `json:"code" binding:"required"`
	CartID   string `json:"cartId"`
	Subtotal int64  `json:"subtotal"`
}

// @Summary Check a coupon against a cart or a subtotal
// @Tags cart
// @Accept json
// @Produce json
// @Param input body applyCouponReq true "Coupon"
// @Success 200 {object} service.CouponResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /coupons/apply [post]
func (s *Server) applyCoupon(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	subtotal := req.Subtotal
	if req.CartID != "" {
		v, err := s.svc.Carts.Get(c, req.CartID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		subtotal = v.Subtotal
	}
	res, err := s.svc.Coupons.Apply(c, req.Code, subtotal)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Place an order
// @Description Takes the items out of stock and records the order. Confirmation emails are sent in the background.
// @Tags checkout
// @Accept json
// @Produce json
// @Param input body service.CheckoutInput true "Checkout"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req service.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	o, err := s.svc.Checkout.Checkout(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}
