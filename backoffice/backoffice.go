package backoffice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/analytics"
	"cookiq/cache"
	"cookiq/models"
)

const (
	defaultDays = 30
	topLimit    = 10
)

type BackofficeModule struct {
	db        *gorm.DB
	guard     *account.Guard
	cache     *cache.Cache
	analytics *analytics.AnalyticsModule
}

func NewBackofficeModule(db *gorm.DB, guard *account.Guard, c *cache.Cache, analyticsModule *analytics.AnalyticsModule) *BackofficeModule {
	return &BackofficeModule{
		db:        db,
		guard:     guard,
		cache:     c,
		analytics: analyticsModule,
	}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	users := router.Group("/api/auth", b.guard.RequireAuth, b.guard.RequireAdmin)
	{
		users.GET("/all", b.listUsers)
		users.GET("/:id", b.getUser)
		users.DELETE("/:id", b.deleteUser)
	}

	backofficeGroup := router.Group("/api/backoffice", b.guard.RequireAuth, b.guard.RequireAdmin)
	{
		backofficeGroup.GET("/stats", b.stats)
		backofficeGroup.GET("/analytics", b.analyticsReport)
		backofficeGroup.POST("/cache/clear", b.clearCache)
	}
}

func (b *BackofficeModule) listUsers(c *gin.Context) {
	var users []models.User
	if err := b.db.Order("created_at DESC").Find(&users).Error; err != nil {
		zap.S().Errorf("error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (b *BackofficeModule) getUser(c *gin.Context) {
	var user models.User
	if err := b.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteUser removes an account. Admins cannot delete themselves.
func (b *BackofficeModule) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == account.UserID(c) {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete your own account"})
		return
	}

	var user models.User
	if err := b.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		zap.S().Errorf("error loading user %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	if err := b.db.Delete(&user).Error; err != nil {
		zap.S().Errorf("error deleting user %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	zap.L().Info("user deleted", zap.String("id", id), zap.String("by", account.UserID(c)))
	c.Status(http.StatusNoContent)
}

type Stats struct {
	Users         int64   `json:"users"`
	Products      int64   `json:"products"`
	OutOfStock    int64   `json:"outOfStock"`
	Orders        int64   `json:"orders"`
	PendingOrders int64   `json:"pendingOrders"`
	Revenue       float64 `json:"revenue"`
	PendingPosts  int64   `json:"pendingPosts"`
}

// stats summarizes the shop. Revenue counts delivered orders only.
func (b *BackofficeModule) stats(c *gin.Context) {
	var s Stats
	b.db.Model(&models.User{}).Count(&s.Users)
	b.db.Model(&models.Product{}).Count(&s.Products)
	b.db.Model(&models.Product{}).Where("stock_quantity <= 0").Count(&s.OutOfStock)
	b.db.Model(&models.Order{}).Count(&s.Orders)
	b.db.Model(&models.Order{}).Where("status = ?", models.StatusPending).Count(&s.PendingOrders)
	b.db.Model(&models.BlogPost{}).Where("approved = ?", false).Count(&s.PendingPosts)
	b.db.Model(&models.Order{}).
		Where("status = ?", models.StatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&s.Revenue)

	c.JSON(http.StatusOK, s)
}

type TopItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

type AnalyticsReport struct {
	Days        int                  `json:"days"`
	Enabled     bool                 `json:"enabled"`
	ViewsByDay  []analytics.DayViews `json:"viewsByDay"`
	TopProducts []TopItem            `json:"topProducts"`
	TopPosts    []TopItem            `json:"topPosts"`
}

func (b *BackofficeModule) analyticsReport(c *gin.Context) {
	days := cast.ToInt(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = defaultDays
	}

	report := AnalyticsReport{
		Days:        days,
		Enabled:     b.analytics != nil,
		ViewsByDay:  b.analytics.ViewsByDay(days),
		TopProducts: b.topItems(analytics.KindProduct, days, &models.Product{}, "name"),
		TopPosts:    b.topItems(analytics.KindPost, days, &models.BlogPost{}, "title"),
	}
	c.JSON(http.StatusOK, report)
}

// topItems resolves the most viewed ids of a kind to their display titles.
// Targets deleted since being viewed keep an empty title.
func (b *BackofficeModule) topItems(kind string, days int, model interface{}, titleColumn string) []TopItem {
	top := b.analytics.TopTargets(kind, days, topLimit)
	items := make([]TopItem, 0, len(top))
	if len(top) == 0 {
		return items
	}

	ids := make([]string, len(top))
	for i, t := range top {
		ids[i] = t.TargetID
	}

	var rows []struct {
		ID    string
		Title string
	}
	b.db.Model(model).Select("id, "+titleColumn+" as title").Where("id IN ?", ids).Scan(&rows)
	titles := make(map[string]string, len(rows))
	for _, r := range rows {
		titles[r.ID] = r.Title
	}

	for _, t := range top {
		items = append(items, TopItem{ID: t.TargetID, Title: titles[t.TargetID], Views: t.Count})
	}
	return items
}

// clearCache drops every cached response, or only the namespaces named in
// the "namespace" query parameter.
func (b *BackofficeModule) clearCache(c *gin.Context) {
	var err error
	if namespaces := c.QueryArray("namespace"); len(namespaces) > 0 {
		err = b.cache.Clear(namespaces...)
	} else {
		err = b.cache.ClearAll()
	}
	if err != nil {
		zap.S().Errorf("error clearing cache: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear cache: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "cache cleared",
	})
}
