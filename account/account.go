package account

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cookiq/models"
)

type AccountModule struct {
	db    *gorm.DB
	guard *Guard
}

func NewAccountModule(db *gorm.DB, guard *Guard) *AccountModule {
	return &AccountModule{
		db:    db,
		guard: guard,
	}
}

func (a *AccountModule) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", a.register)
		auth.POST("/login", a.login)
		auth.PUT("/profile/update", a.guard.RequireAuth, a.updateProfile)
	}
}

func (a *AccountModule) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fullName, email and password are required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	a.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email is already registered"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		zap.S().Errorf("error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: hash,
		Roles:        models.RoleUser,
		CreatedAt:    time.Now(),
	}
	if err := a.db.Create(&user).Error; err != nil {
		zap.S().Errorf("error creating user %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	zap.L().Info("user registered", zap.String("email", email))
	c.JSON(http.StatusCreated, user)
}

func (a *AccountModule) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	var user models.User
	err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := a.guard.IssueToken(&user)
	if err != nil {
		zap.S().Errorf("error signing token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{User: user, Token: token})
}

// updateProfile changes only the fields that were sent non-empty.
func (a *AccountModule) updateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
		return
	}

	user, err := a.FindUser(UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.FullName); name != "" {
		updates["full_name"] = name
	}
	if avatar := strings.TrimSpace(req.AvatarURL); avatar != "" {
		updates["avatar_url"] = avatar
	}
	if len(updates) > 0 {
		if err := a.db.Model(user).Updates(updates).Error; err != nil {
			zap.S().Errorf("error updating profile %s: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
			return
		}
		if user, err = a.FindUser(user.ID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
	}

	c.JSON(http.StatusOK, user)
}

func (a *AccountModule) FindUser(id string) (*models.User, error) {
	if id == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := a.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

var ErrEmptyPassword = errors.New("empty password")

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
