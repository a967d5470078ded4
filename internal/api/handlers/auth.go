package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facturas_api/internal/service"
)

// AuthHandler 處理登入請求
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginInput 定義登入請求的結構
type LoginInput struct {
	Password string `json:"password" binding:"required"`
}

// Login 驗證密碼並回傳 JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La contraseña es requerida"})
		return
	}

	token, err := h.authService.Login(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
