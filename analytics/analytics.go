package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	KindProduct = "product"
	KindPost    = "post"

	visitorCookie = "cookiq_visitor_id"
	throttle      = 30 * time.Minute
)

// ViewEvent is one detail-page view of a product or blog post
type ViewEvent struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	Kind      string    `gorm:"not null;index"`
	TargetID  string    `gorm:"not null;index"`
	VisitorID string    `gorm:"not null;index"`
	IP        string    `gorm:"not null"`
	Language  *string   // nullable
	Browser   *string   // nullable
	CreatedAt time.Time `gorm:"index"`
}

// AnalyticsModule records views in its own database. A nil module is
// valid and records nothing.
type AnalyticsModule struct {
	db      *gorm.DB
	pending sync.WaitGroup
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		zap.S().Info("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&ViewEvent{}); err != nil {
		zap.S().Errorf("Error migrating view_events table: %v", err)
		return nil
	}

	zap.S().Info("Analytics module initialized successfully")
	return &AnalyticsModule{db: db}
}

// TrackView records a view unless the same visitor viewed the same target
// in the last 30 minutes. The insert happens in the background.
func (a *AnalyticsModule) TrackView(c *gin.Context, kind, targetID string) {
	if a == nil || a.db == nil {
		return
	}

	visitorID := a.visitorID(c)

	var recent ViewEvent
	err := a.db.Where("visitor_id = ? AND kind = ? AND target_id = ? AND created_at > ?",
		visitorID, kind, targetID, time.Now().Add(-throttle)).First(&recent).Error
	if err == nil {
		return
	}

	event := ViewEvent{
		Kind:      kind,
		TargetID:  targetID,
		VisitorID: visitorID,
		IP:        clientIP(c),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		Browser:   extractBrowser(c.Request.UserAgent()),
		CreatedAt: time.Now(),
	}

	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		if err := a.db.Create(&event).Error; err != nil {
			zap.S().Errorf("Error saving analytics event: %v", err)
		}
	}()
}

// Wait blocks until background inserts are done.
func (a *AnalyticsModule) Wait() {
	if a == nil {
		return
	}
	a.pending.Wait()
}

// visitorID reads the visitor cookie or derives a stable id from the
// client address and user agent, and sets the cookie.
func (a *AnalyticsModule) visitorID(c *gin.Context) string {
	if cookie, err := c.Cookie(visitorCookie); err == nil && cookie != "" {
		return cookie
	}

	hash := sha256.Sum256([]byte(clientIP(c) + "|" + c.Request.UserAgent()))
	id := hex.EncodeToString(hash[:])

	c.SetCookie(visitorCookie, id, 60*60*24*365*2, "/", "", false, true)
	return id
}

// clientIP prefers proxy headers over the socket address
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// order matters: Edge and Opera also claim Chrome
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "go-http-client"):
		browser = "Go"
	default:
		browser = "Other"
	}
	return &browser
}

// extractLanguage keeps the first entry of Accept-Language
func extractLanguage(acceptLang string) *string {
	if acceptLang == "" {
		return nil
	}
	lang := strings.TrimSpace(strings.Split(acceptLang, ",")[0])
	lang = strings.Split(lang, ";")[0]
	return &lang
}

type DayViews struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TargetViews struct {
	TargetID string `json:"targetId"`
	Count    int64  `json:"count"`
}

func (a *AnalyticsModule) ViewCount(kind, targetID string) int64 {
	if a == nil || a.db == nil {
		return 0
	}

	var count int64
	a.db.Model(&ViewEvent{}).Where("kind = ? AND target_id = ?", kind, targetID).Count(&count)
	return count
}

// ViewsByDay returns one entry per day for the last days days, oldest first.
func (a *AnalyticsModule) ViewsByDay(days int) []DayViews {
	if a == nil || a.db == nil || days <= 0 {
		return []DayViews{}
	}

	var results []DayViews
	a.db.Model(&ViewEvent{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", time.Now().AddDate(0, 0, -days)).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results)

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Date] = r.Count
	}

	dayViews := make([]DayViews, days)
	for i := 0; i < days; i++ {
		date := time.Now().AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		dayViews[i] = DayViews{Date: date, Count: counts[date]}
	}
	return dayViews
}

// TopTargets returns the limit most viewed targets of a kind over the last
// days days.
func (a *AnalyticsModule) TopTargets(kind string, days, limit int) []TargetViews {
	if a == nil || a.db == nil {
		return []TargetViews{}
	}

	var results []TargetViews
	a.db.Model(&ViewEvent{}).
		Select("target_id as target_id, COUNT(*) as count").
		Where("kind = ? AND created_at >= ?", kind, time.Now().AddDate(0, 0, -days)).
		Group("target_id").
		Order("count DESC").
		Limit(limit).
		Scan(&results)
	return results
}
