package blog

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/analytics"
	"cookiq/cache"
	"cookiq/models"
)

const cacheNamespace = "blog"

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

type BlogModule struct {
	db        *gorm.DB
	guard     *account.Guard
	cache     *cache.Cache
	analytics *analytics.AnalyticsModule
}

func NewBlogModule(db *gorm.DB, guard *account.Guard, c *cache.Cache, analyticsModule *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{
		db:        db,
		guard:     guard,
		cache:     c,
		analytics: analyticsModule,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	blogGroup := router.Group("/api/blog")
	{
		blogGroup.GET("/public", b.cache.Middleware(cacheNamespace), b.listApproved)
		blogGroup.GET("/approved", b.cache.Middleware(cacheNamespace), b.listApproved)
		blogGroup.GET("/public/:id", b.publicPost)

		blogGroup.POST("/create", b.guard.RequireAuth, b.create)
		blogGroup.POST("/comment/:id", b.guard.RequireAuth, b.comment)
	}

	moderation := router.Group("/api/blog", b.guard.RequireAuth, b.guard.RequireAdmin)
	{
		moderation.GET("/pending", b.listPending)
		moderation.POST("/approve/:id", b.approve)
		moderation.DELETE("/reject/:id", b.reject)
		moderation.DELETE("/delete-approved/:id", b.deleteApproved)
	}
}

func (b *BlogModule) withComments() *gorm.DB {
	return b.db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

func (b *BlogModule) findPost(id string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := b.withComments().Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	post.ContentHTML = renderMarkdown(post.Content)
	return &post, nil
}

func (b *BlogModule) listPosts(c *gin.Context, approved bool) {
	var posts []models.BlogPost
	if err := b.withComments().Where("approved = ?", approved).Order("created_at DESC").Find(&posts).Error; err != nil {
		zap.S().Errorf("error listing posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list posts"})
		return
	}
	for i := range posts {
		posts[i].ContentHTML = renderMarkdown(posts[i].Content)
	}
	if posts == nil {
		posts = []models.BlogPost{}
	}
	c.JSON(http.StatusOK, posts)
}

func (b *BlogModule) listApproved(c *gin.Context) {
	b.listPosts(c, true)
}

func (b *BlogModule) listPending(c *gin.Context) {
	b.listPosts(c, false)
}

func (b *BlogModule) publicPost(c *gin.Context) {
	post, err := b.findPost(c.Param("id"))
	if err != nil || !post.Approved {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	b.analytics.TrackView(c, analytics.KindPost, post.ID)
	c.JSON(http.StatusOK, post)
}

// create stores a post by the caller. Posts by admins are published
// right away, the rest wait for moderation.
func (b *BlogModule) create(c *gin.Context) {
	var req models.CreateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and category are required"})
		return
	}
	if !models.IsBlogCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	userID := account.UserID(c)
	if req.AuthorID != "" && req.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot post as another user"})
		return
	}

	var author models.User
	if err := b.db.Where("id = ?", userID).First(&author).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "author not found"})
		return
	}

	now := time.Now()
	post := models.BlogPost{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Category:      req.Category,
		CoverImageURL: req.CoverImageURL,
		Content:       req.Content,
		AuthorID:      author.ID,
		AuthorName:    author.FullName,
		Approved:      author.Roles == models.RoleAdmin,
		CreatedAt:     now,
		Comments:      []models.Comment{},
	}
	if post.Approved {
		post.ApprovedAt = &now
	}

	if err := b.db.Create(&post).Error; err != nil {
		zap.S().Errorf("error creating post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}

	zap.L().Info("post created", zap.String("id", post.ID), zap.Bool("approved", post.Approved))
	b.invalidate()
	post.ContentHTML = renderMarkdown(post.Content)
	c.JSON(http.StatusOK, post)
}

func (b *BlogModule) approve(c *gin.Context) {
	post, err := b.findPost(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if !post.Approved {
		now := time.Now()
		post.Approved = true
		post.ApprovedAt = &now
		if err := b.db.Model(&models.BlogPost{}).Where("id = ?", post.ID).
			Updates(map[string]interface{}{"approved": true, "approved_at": now}).Error; err != nil {
			zap.S().Errorf("error approving post %s: %v", post.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve post"})
			return
		}
	}

	b.invalidate()
	c.JSON(http.StatusOK, post)
}

var errWrongState = errors.New("post is not in the expected moderation state")

// deletePost removes a post whose approved flag equals approved.
func (b *BlogModule) deletePost(id string, approved bool) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		var post models.BlogPost
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		if post.Approved != approved {
			return errWrongState
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

func (b *BlogModule) respondDelete(c *gin.Context, approved bool) {
	err := b.deletePost(c.Param("id"), approved)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, errWrongState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		zap.S().Errorf("error deleting post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
	default:
		b.invalidate()
		c.Status(http.StatusNoContent)
	}
}

func (b *BlogModule) reject(c *gin.Context) {
	b.respondDelete(c, false)
}

func (b *BlogModule) deleteApproved(c *gin.Context) {
	b.respondDelete(c, true)
}

// comment appends a comment by the caller and returns the whole post.
func (b *BlogModule) comment(c *gin.Context) {
	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	userID := account.UserID(c)
	if req.UserID != "" && req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot comment as another user"})
		return
	}

	var post models.BlogPost
	if err := b.db.Where("id = ?", c.Param("id")).First(&post).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	var commenter models.User
	if err := b.db.Where("id = ?", userID).First(&commenter).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	comment := models.Comment{
		ID:         uuid.NewString(),
		PostID:     post.ID,
		UserID:     commenter.ID,
		UserName:   commenter.FullName,
		UserAvatar: commenter.AvatarURL,
		Content:    strings.TrimSpace(req.Content),
		CreatedAt:  time.Now(),
	}
	if err := b.db.Create(&comment).Error; err != nil {
		zap.S().Errorf("error saving comment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save comment"})
		return
	}

	b.invalidate()
	updated, err := b.findPost(post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load post"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (b *BlogModule) invalidate() {
	if err := b.cache.Clear(cacheNamespace); err != nil {
		zap.S().Warnf("could not clear blog cache: %v", err)
	}
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}
