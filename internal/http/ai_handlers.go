package httpapi

import (
	"bufio"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"qgsape/internal/ai"
	"qgsape/internal/geo"
	"qgsape/internal/logger"
	"qgsape/internal/media"
)

// @Summary Products related to a product
// @Description Falls back to products of the same category when the assistant is unavailable.
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Param limit query int false "Max results" default(4)
// @Success 200 {array} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id}/recommendations [get]
func (s *Server) recommendations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := s.svc.Assistant.Recommendations(c, c.Param("id"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Find products looking like a photo
// @Tags search
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Photo"
// @Success 200 {object} map[string]any
// @Router /search/visual [post]
func (s *Server) visualSearch(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		softFailure(c, "Aucune image reçue.")
		return
	}
	data, mimeType, err := readImage(fh)
	if err != nil {
		softFailure(c, err.Error())
		return
	}
	products, err := s.svc.Assistant.VisualSearch(c, data, mimeType)
	if err != nil {
		logger.FromGin(c, s.log).WithError(err).Warn("Visual search failed")
		softFailure(c, "La recherche par image a échoué, réessayez plus tard.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

// @Summary Draft a product description
// @Tags manager
// @Accept json
// @Produce json
// @Param input body ai.DescriptionInput true "Product facts"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /manager/ai/product-description [post]
func (s *Server) describeProduct(c *gin.Context) {
	var req ai.DescriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	desc, err := s.svc.Assistant.DescribeProduct(c, req)
	if err != nil {
		logger.FromGin(c, s.log).WithError(err).Warn("Description flow failed")
		softFailure(c, "La génération de la description a échoué.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "description": desc})
}

// @Summary Restocking advice for low-stock sizes
// @Tags manager
// @Produce json
// @Success 200 {object} map[string]any
// @Security BearerAuth
// @Router /manager/ai/stock-advice [get]
func (s *Server) stockAdvice(c *gin.Context) {
	advice, err := s.svc.Assistant.StockAdvice(c)
	if err != nil {
		logger.FromGin(c, s.log).WithError(err).Warn("Stock advice flow failed")
		softFailure(c, "L'analyse du stock a échoué.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "advice": advice})
}

// @Summary Upload an image
// @Tags manager
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param folder formData string false "Folder, e.g. products"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /manager/uploads [post]
func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if fh.Size > media.MaxImageSize {
		badRequest(c, "image too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffLen)
	head, _ := br.Peek(sniffLen)
	url, err := s.svc.Uploader.Upload(c, c.PostForm("folder"), mimetype.Detect(head).String(), br)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// @Summary Address at a position
// @Tags geo
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} geo.Place
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /geocode/reverse [get]
func (s *Server) reverseGeocode(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		badRequest(c, "lat and lon are required")
		return
	}
	place, err := s.svc.Geocoder.Reverse(c, lat, lon)
	if errors.Is(err, geo.ErrInvalidCoordinates) {
		badRequest(c, err.Error())
		return
	}
	if err != nil {
		logger.FromGin(c, s.log).WithError(err).Warn("Reverse geocoding failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding unavailable"})
		return
	}
	c.JSON(http.StatusOK, place)
}

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

var (
	errImageTooLarge = errors.New("image trop volumineuse (5 Mo maximum)")
	errEmptyImage    = errors.New("image vide")
)

// readImage loads an uploaded image and sniffs its type.
func readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > media.MaxImageSize {
		return nil, "", errImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, media.MaxImageSize))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errEmptyImage
	}
	return data, mimetype.Detect(data).String(), nil
}
