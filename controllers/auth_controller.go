package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"room-service/services"
	"room-service/utils"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthController struct {
	AuthSvc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{AuthSvc: svc}
}

// Login (POST /api/auth/login) - staff sign-in
func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" || payload.Password == "" {
		utils.JSONError(c, http.StatusBadRequest, "username and password required")
		return
	}

	token, expires, err := ctrl.AuthSvc.Login(username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("username", username).Str("client_ip", c.ClientIP()).Msg("staff login rejected")
			utils.JSONError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":     token,
		"role":      services.RoleStaff,
		"expiresAt": expires,
	})
}
