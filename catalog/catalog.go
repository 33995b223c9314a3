package catalog

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/analytics"
	"cookiq/cache"
	"cookiq/models"
)

const (
	cacheNamespace  = "products"
	defaultPageSize = 20
	maxPageSize     = 500
)

type CatalogModule struct {
	db        *gorm.DB
	guard     *account.Guard
	cache     *cache.Cache
	analytics *analytics.AnalyticsModule
}

func NewCatalogModule(db *gorm.DB, guard *account.Guard, c *cache.Cache, analyticsModule *analytics.AnalyticsModule) *CatalogModule {
	return &CatalogModule{
		db:        db,
		guard:     guard,
		cache:     c,
		analytics: analyticsModule,
	}
}

func (m *CatalogModule) RegisterRoutes(router *gin.Engine) {
	products := router.Group("/api/products")
	{
		products.GET("", m.cache.Middleware(cacheNamespace), m.list)
		products.GET("/category/:category", m.cache.Middleware(cacheNamespace), m.listByCategory)
		products.GET("/slug/:slug", m.bySlug)
		products.GET("/:id", m.detail)
	}

	admin := router.Group("/api/products/admin", m.guard.RequireAuth, m.guard.RequireAdmin)
	{
		admin.POST("", m.create)
		admin.PUT("/:id", m.update)
		admin.PATCH("/:id/stock", m.adjustStock)
		admin.DELETE("/:id", m.remove)
	}
}

// pageParams reads 0-based page and size from the query.
func pageParams(c *gin.Context) (int, int) {
	page := cast.ToInt(c.Query("page"))
	if page < 0 {
		page = 0
	}
	size := cast.ToInt(c.Query("size"))
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func (m *CatalogModule) paged(c *gin.Context, query *gorm.DB) {
	page, size := pageParams(c)
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Model(&models.Product{}).Count(&total).Error; err != nil {
		zap.S().Errorf("error counting products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}

	var products []models.Product
	if err := query.Order("created_at ASC").Offset(page * size).Limit(size).Find(&products).Error; err != nil {
		zap.S().Errorf("error listing products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, models.Page[models.Product]{
		Content:       products,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	})
}

func (m *CatalogModule) list(c *gin.Context) {
	m.paged(c, m.db.Where("is_active = ?", true))
}

func (m *CatalogModule) listByCategory(c *gin.Context) {
	m.paged(c, m.db.Where("is_active = ? AND category_id = ?", true, c.Param("category")))
}

func (m *CatalogModule) detail(c *gin.Context) {
	var product models.Product
	if err := m.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	m.analytics.TrackView(c, analytics.KindProduct, product.ID)
	c.JSON(http.StatusOK, product)
}

func (m *CatalogModule) bySlug(c *gin.Context) {
	var product models.Product
	if err := m.db.Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	m.analytics.TrackView(c, analytics.KindProduct, product.ID)
	c.JSON(http.StatusOK, product)
}

func validate(req *models.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if !models.IsProductCategory(req.CategoryID) {
		return errors.New("unknown category")
	}
	if req.Price < 0 {
		return errors.New("price must not be negative")
	}
	if req.StockQuantity < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}

func applyRequest(p *models.Product, req *models.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = strings.TrimSpace(req.Slug)
	if p.Slug == "" {
		p.Slug = generateSlug(p.Name)
	}
	p.ShortDescription = req.ShortDescription
	p.Description = req.Description
	p.Price = req.Price
	p.Currency = req.Currency
	p.CategoryID = req.CategoryID
	p.Images = req.Images
	p.StockQuantity = req.StockQuantity
	p.Unit = req.Unit
	p.Tags = req.Tags
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

func (m *CatalogModule) create(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		return
	}
	if err := validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	product := models.Product{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRequest(&product, &req)

	if err := m.db.Create(&product).Error; err != nil {
		zap.S().Errorf("error creating product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
		return
	}

	m.invalidate()
	c.JSON(http.StatusCreated, product)
}

func (m *CatalogModule) update(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		return
	}
	if err := validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := m.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	applyRequest(&product, &req)
	product.UpdatedAt = time.Now()

	if err := m.db.Save(&product).Error; err != nil {
		zap.S().Errorf("error updating product %s: %v", product.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
		return
	}

	m.invalidate()
	c.JSON(http.StatusOK, product)
}

// adjustStock adds delta to the stock; the result never goes below zero.
func (m *CatalogModule) adjustStock(c *gin.Context) {
	delta, err := cast.ToIntE(c.Query("delta"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be an integer"})
		return
	}

	var product models.Product
	if err := m.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	product.StockQuantity += delta
	if product.StockQuantity < 0 {
		product.StockQuantity = 0
	}
	product.UpdatedAt = time.Now()
	if err := m.db.Save(&product).Error; err != nil {
		zap.S().Errorf("error updating stock %s: %v", product.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update stock"})
		return
	}

	m.invalidate()
	c.JSON(http.StatusOK, product)
}

func (m *CatalogModule) remove(c *gin.Context) {
	result := m.db.Where("id = ?", c.Param("id")).Delete(&models.Product{})
	if result.Error != nil {
		zap.S().Errorf("error deleting product: %v", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	m.invalidate()
	c.Status(http.StatusNoContent)
}

func (m *CatalogModule) invalidate() {
	if err := m.cache.Clear(cacheNamespace); err != nil {
		zap.S().Warnf("could not clear product cache: %v", err)
	}
}
