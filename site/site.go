package site

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/models"
)

type SiteModule struct {
	db        *gorm.DB
	publicURL string
	started   time.Time
}

func NewSiteModule(db *gorm.DB, publicURL string) *SiteModule {
	return &SiteModule{
		db:        db,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		started:   time.Now(),
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", s.healthz)
	router.GET("/sitemap.xml", s.sitemap)
}

func (s *SiteModule) healthz(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		zap.S().Warnf("health check: database unreachable: %v", err)
		status = http.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"database": dbStatus,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func writeURL(sb *strings.Builder, loc, lastmod, changefreq, priority string) {
	sb.WriteString("  <url>\n")
	sb.WriteString("    <loc>" + loc + "</loc>\n")
	if lastmod != "" {
		sb.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
	}
	sb.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
	sb.WriteString("    <priority>" + priority + "</priority>\n")
	sb.WriteString("  </url>\n")
}

// sitemap lists the storefront pages, every active product and every
// approved blog post.
func (s *SiteModule) sitemap(c *gin.Context) {
	domain := s.publicURL

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL(&sitemap, domain+"/", "", "daily", "1.0")
	writeURL(&sitemap, domain+"/products", "", "daily", "0.9")
	writeURL(&sitemap, domain+"/blog", "", "daily", "0.8")

	for _, category := range models.ProductCategories {
		writeURL(&sitemap, domain+"/products/category/"+url.PathEscape(category), "", "weekly", "0.7")
	}

	var products []models.Product
	s.db.Where("is_active = ?", true).Order("created_at ASC").Find(&products)
	for _, product := range products {
		writeURL(&sitemap, domain+"/products/"+url.PathEscape(product.ID), product.UpdatedAt.Format(time.RFC3339), "weekly", "0.6")
	}

	var posts []models.BlogPost
	s.db.Where("approved = ?", true).Order("created_at DESC").Find(&posts)
	for _, post := range posts {
		lastmod := post.CreatedAt
		if post.ApprovedAt != nil {
			lastmod = *post.ApprovedAt
		}
		writeURL(&sitemap, domain+"/blog/"+url.PathEscape(post.ID), lastmod.Format(time.RFC3339), "monthly", "0.5")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}
