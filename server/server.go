// Package server assembles the API modules into one gin engine.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/analytics"
	"cookiq/backoffice"
	"cookiq/blog"
	"cookiq/cache"
	"cookiq/catalog"
	"cookiq/email"
	"cookiq/orders"
	"cookiq/site"
	"cookiq/upload"
)

type Deps struct {
	DB        *gorm.DB
	Guard     *account.Guard
	Cache     *cache.Cache
	Analytics *analytics.AnalyticsModule
	Mailer    *email.EmailService
	UploadDir string
	PublicURL string
}

type Server struct {
	Router *gin.Engine
	Orders *orders.OrdersModule
	cache  *cache.Cache
}

// New registers every module on router.
func New(router *gin.Engine, d Deps) *Server {
	account.NewAccountModule(d.DB, d.Guard).RegisterRoutes(router)
	backoffice.NewBackofficeModule(d.DB, d.Guard, d.Cache, d.Analytics).RegisterRoutes(router)
	catalog.NewCatalogModule(d.DB, d.Guard, d.Cache, d.Analytics).RegisterRoutes(router)
	blog.NewBlogModule(d.DB, d.Guard, d.Cache, d.Analytics).RegisterRoutes(router)
	upload.NewUploadModule(d.Guard, d.UploadDir, d.PublicURL).RegisterRoutes(router)
	site.NewSiteModule(d.DB, d.PublicURL).RegisterRoutes(router)

	ordersModule := orders.NewOrdersModule(d.DB, d.Guard, d.Cache, d.Mailer)
	ordersModule.RegisterRoutes(router)

	return &Server{Router: router, Orders: ordersModule, cache: d.Cache}
}

// Schedule adds the background jobs: auto-delivery and the cache sweep.
func (s *Server) Schedule(sched *cron.Cron) error {
	if err := s.Orders.Schedule(sched); err != nil {
		return err
	}
	return s.cache.Schedule(sched)
}
