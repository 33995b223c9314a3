package upload

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cookiq/account"
	"cookiq/models"
)

// MaxFileSize bounds a single upload.
const MaxFileSize = 10 << 20

type UploadModule struct {
	guard     *account.Guard
	dir       string
	publicURL string
}

func NewUploadModule(guard *account.Guard, dir, publicURL string) *UploadModule {
	return &UploadModule{
		guard:     guard,
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (u *UploadModule) RegisterRoutes(router *gin.Engine) {
	router.Static("/uploads", u.dir)
	router.POST("/api/files/upload", u.guard.RequireAuth, u.upload)
}

func (u *UploadModule) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}
	if file.Size > MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	if err := os.MkdirAll(u.dir, 0755); err != nil {
		zap.S().Errorf("could not create upload dir %s: %v", u.dir, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(u.dir, name)); err != nil {
		zap.S().Errorf("could not save upload %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	zap.L().Info("file uploaded",
		zap.String("name", name),
		zap.Int64("size", file.Size),
		zap.String("user", account.UserID(c)),
	)
	c.JSON(http.StatusOK, models.UploadResponse{URL: u.publicURL + "/uploads/" + name})
}
