package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"qgsape/internal/auth"
	"qgsape/internal/cart"
	"qgsape/internal/domain"
	"qgsape/internal/geo"
	"qgsape/internal/logger"
	"qgsape/internal/media"
	"qgsape/internal/repository"
	"qgsape/internal/service"
)

// Geocoder turns coordinates into an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (geo.Place, error)
}

// Services are the dependencies the handlers call into.
type Services struct {
	Products   *service.ProductService
	Categories *service.CategoryService
	Orders     *service.OrderService
	Carts      *service.CartService
	Checkout   *service.CheckoutService
	Coupons    *service.CouponService
	Reviews    *service.ReviewService
	Community  *service.CommunityService
	Content    *service.ContentService
	Settings   *service.SettingsService
	Users      *service.UserService
	Assistant  *service.AssistantService
	Newsletter *service.NewsletterService
	Geocoder   Geocoder
	Uploader   media.Uploader
}

type Config struct {
	Verifier auth.TokenVerifier
	// UploadDir is served at /uploads when set.
	UploadDir string
	Log       logrus.FieldLogger
}

type Server struct {
	engine *gin.Engine
	svc    Services
	cfg    Config
	log    logrus.FieldLogger
}

func NewServer(cfg Config, svc Services) *Server {
	if cfg.Log == nil {
		cfg.Log = logger.Discard()
	}
	r := gin.New()
	r.Use(logger.GinMiddleware(cfg.Log), gin.Recovery())
	r.MaxMultipartMemory = media.MaxImageSize
	s := &Server{engine: r, svc: svc, cfg: cfg, log: logger.WithModule(cfg.Log, "http")}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if s.cfg.UploadDir != "" {
		s.engine.Static("/uploads", s.cfg.UploadDir)
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/products", s.listProducts)
		v1.GET("/products/:id", s.getProduct)
		v1.GET("/products/:id/reviews", s.listReviews)
		v1.GET("/products/:id/recommendations", s.recommendations)
		v1.GET("/categories/tree", s.categoryTree)

		v1.POST("/carts", s.createCart)
		v1.GET("/carts/:id", s.getCart)
		v1.POST("/carts/:id/items", s.addCartItem)
		v1.PATCH("/carts/:id/items", s.updateCartItem)
		v1.DELETE("/carts/:id/items", s.removeCartItem)
		v1.POST("/coupons/apply", s.applyCoupon)
		v1.POST("/checkout", s.checkout)

		v1.GET("/shipping-methods", listEnabled(s.svc.Content.ShippingMethods))
		v1.GET("/payment-methods", listEnabled(s.svc.Content.PaymentMethods))
		v1.GET("/announcements", listEnabled(s.svc.Content.Announcements))
		v1.GET("/promotions", listEnabled(s.svc.Content.Promotions))
		v1.GET("/settings/site", s.getSiteInfo)

		v1.GET("/community/posts", s.listPosts)
		v1.POST("/newsletter", s.subscribe)
		v1.POST("/search/visual", s.visualSearch)
		v1.GET("/geocode/reverse", s.reverseGeocode)
	}

	account := v1.Group("", auth.Authenticate(s.cfg.Verifier, s.svc.Users, s.log))
	{
		account.GET("/account/profile", s.getProfile)
		account.PUT("/account/profile", s.updateProfile)
		account.GET("/account/orders", s.myOrders)
		account.POST("/products/:id/reviews", s.createReview)
		account.POST("/community/posts", s.createPost)
	}

	manager := account.Group("/manager", auth.RequireRole(domain.RoleAdmin, domain.RoleManager))
	{
		manager.POST("/products", s.createProduct)
		manager.PUT("/products/:id", s.updateProduct)
		manager.DELETE("/products/:id", s.deleteProduct)
		manager.PATCH("/products/stock", s.updateStock)

		manager.GET("/categories", s.adminCategoryTree)
		manager.POST("/categories", s.createCategory)
		manager.PUT("/categories/:id", s.updateCategory)
		manager.DELETE("/categories/:id", s.deleteCategory)
		manager.PATCH("/categories/visibility", s.setCategoryVisibility)

		manager.GET("/orders", s.listOrders)
		manager.GET("/orders/:id", s.getOrder)
		manager.PATCH("/orders/:id/status", s.updateOrderStatus)

		manager.POST("/ai/product-description", s.describeProduct)
		manager.GET("/ai/stock-advice", s.stockAdvice)
		manager.POST("/uploads", s.upload)
	}

	admin := account.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	{
		registerCRUD[domain.Coupon](admin.Group("/coupons"), s.svc.Coupons)
		registerCRUD[domain.ShippingMethod](admin.Group("/shipping-methods"), s.svc.Content.ShippingMethods)
		registerCRUD[domain.PaymentMethod](admin.Group("/payment-methods"), s.svc.Content.PaymentMethods)
		registerCRUD[domain.Announcement](admin.Group("/announcements"), s.svc.Content.Announcements)
		registerCRUD[domain.Promotion](admin.Group("/promotions"), s.svc.Content.Promotions)

		admin.PUT("/settings/site", s.putSiteInfo)
		admin.GET("/users", s.listUsers)
		admin.PATCH("/users/:email/role", s.setUserRole)
		admin.DELETE("/products/:id/reviews/:reviewId", s.deleteReview)
		admin.DELETE("/community/posts/:id", s.deletePost)
	}
}

// respondError writes {"error": msg} with the status mapped from err.
func (s *Server) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c, s.log).WithError(err).Error("Request failed")
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// softFailure is the {success:false} body of the AI and newsletter endpoints.
func softFailure(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": msg})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrUnknownVariant),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, geo.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, service.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotEnoughStock),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrContentRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
