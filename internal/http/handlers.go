package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"qgsape/internal/auth"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
	"qgsape/internal/service"
)

// Product handlers

// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Name or description contains"
// @Param category query string false "Category id"
// @Param min_price query int false "Min price (FCFA)"
// @Param max_price query int false "Max price (FCFA)"
// @Param new query bool false "Only new arrivals"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{
		Query:      c.Query("q"),
		CategoryID: c.Query("category"),
	}
	if v := c.Query("min_price"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.Query("max_price"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaxPrice = &x
		}
	}
	f.OnlyNew, _ = strconv.ParseBool(c.Query("new"))
	list, err := s.svc.Products.List(c, f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.svc.Products.GetByID(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Create product
// @Tags manager
// @Accept json
// @Produce json
// @Param input body domain.Product true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /manager/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req domain.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	p, err := s.svc.Products.Create(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags manager
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body domain.Product true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req domain.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	req.ID = c.Param("id")
	p, err := s.svc.Products.Update(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags manager
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.svc.Products.Delete(c, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stockReq struct {
	Updates []service.StockUpdate `json:"updates" binding:"required,min=1"`
}

// @Summary Update stock of several sizes at once
// @Tags manager
// @Accept json
// @Produce json
// @Param input body stockReq true "Stock updates"
// @Success 200 {array} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/products/stock [patch]
func (s *Server) updateStock(c *gin.Context) {
	var req stockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	list, err := s.svc.Products.UpdateStock(c, req.Updates)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Category handlers

// @Summary Visible category tree
// @Tags categories
// @Produce json
// @Success 200 {array} service.CategoryNode
// @Router /categories/tree [get]
func (s *Server) categoryTree(c *gin.Context) {
	s.respondTree(c, true)
}

// @Summary Full category tree, hidden branches included
// @Tags manager
// @Produce json
// @Success 200 {array} service.CategoryNode
// @Security BearerAuth
// @Router /manager/categories [get]
func (s *Server) adminCategoryTree(c *gin.Context) {
	s.respondTree(c, false)
}

func (s *Server) respondTree(c *gin.Context, onlyVisible bool) {
	tree, err := s.svc.Categories.Tree(c, onlyVisible)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// @Summary Create category
// @Tags manager
// @Accept json
// @Produce json
// @Param input body domain.Category true "Category"
// @Success 201 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /manager/categories [post]
func (s *Server) createCategory(c *gin.Context) {
	var req domain.Category
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	cat, err := s.svc.Categories.Create(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary Update category
// @Tags manager
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param input body domain.Category true "Category"
// @Success 200 {object} domain.Category
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/categories/{id} [put]
func (s *Server) updateCategory(c *gin.Context) {
	var req domain.Category
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	req.ID = c.Param("id")
	cat, err := s.svc.Categories.Update(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary Delete category
// @Tags manager
// @Param id path string true "Category ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/categories/{id} [delete]
func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.svc.Categories.Delete(c, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type visibilityReq struct {
	IDs     []string `json:"ids" binding:"required,min=1"`
	Visible bool     `json:"visible"`
}

// @Summary Show or hide several categories
// @Tags manager
// @Accept json
// @Param input body visibilityReq true "Categories"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/categories/visibility [patch]
func (s *Server) setCategoryVisibility(c *gin.Context) {
	var req visibilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.svc.Categories.SetVisibility(c, req.IDs, req.Visible); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Order handlers

// @Summary List orders, newest first
// @Tags manager
// @Produce json
// @Success 200 {array} domain.Order
// @Security BearerAuth
// @Router /manager/orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.svc.Orders.List(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags manager
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /manager/orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.svc.Orders.GetOrder(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type statusReq struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// @Summary Change order status
// @Description Pending to Shipped or Cancelled, Shipped to Delivered or Cancelled. Cancelling restocks.
// @Tags manager
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body statusReq true "New status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /manager/orders/{id}/status [patch]
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	o, err := s.svc.Orders.UpdateStatus(c, c.Param("id"), req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Orders of the signed-in customer
// @Tags account
// @Produce json
// @Success 200 {array} domain.Order
// @Security BearerAuth
// @Router /account/orders [get]
func (s *Server) myOrders(c *gin.Context) {
	u, _ := auth.CurrentUser(c)
	list, err := s.svc.Orders.ListByEmail(c, u.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Review handlers

// @Summary List product reviews
// @Tags reviews
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {array} domain.Review
// @Router /products/{id}/reviews [get]
func (s *Server) listReviews(c *gin.Context) {
	list, err := s.svc.Reviews.List(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Review a product
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body service.ReviewInput true "Review"
// @Success 201 {object} domain.Review
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /products/{id}/reviews [post]
func (s *Server) createReview(c *gin.Context) {
	var req service.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, _ := auth.CurrentUser(c)
	r, err := s.svc.Reviews.Create(c, c.Param("id"), u, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// @Summary Delete a review
// @Tags admin
// @Param id path string true "Product ID"
// @Param reviewId path string true "Review ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/products/{id}/reviews/{reviewId} [delete]
func (s *Server) deleteReview(c *gin.Context) {
	if err := s.svc.Reviews.Delete(c, c.Param("id"), c.Param("reviewId")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
