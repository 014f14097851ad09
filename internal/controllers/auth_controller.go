package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/models"
)

type AuthController struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewAuthController(db *gorm.DB, secret string, ttl time.Duration) *AuthController {
	return &AuthController{db: db, secret: secret, ttl: ttl}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success   bool        `json:"success"`
	Messages  []string    `json:"messages"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := ac.db.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithError(err, "auth_controller").Error("Failed to load user")
		}
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := ac.generateToken(user)
	if err != nil {
		logger.WithError(err, "auth_controller").Error("Failed to sign token")
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Clear password from response
	user.Password = ""

	logger.WithUser(user.ID).Info("User logged in")
	c.JSON(http.StatusOK, AuthResponse{
		Success:   true,
		Messages:  []string{"Successful login."},
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	})
}

func (ac *AuthController) generateToken(user models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(ac.ttl)
	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"role":      string(user.Role),
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"exp":       expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ac.secret))
	return tokenString, expiresAt, err
}
