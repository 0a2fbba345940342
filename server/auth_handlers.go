package server

import (
	"net/http"

	"github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/server/response"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		created, err := s.AuthService.SignupUser(&user)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, created, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := c.ShouldBindJSON(&loginRequest); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		loginResponse, apiErr := s.AuthService.LoginUser(&loginRequest)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := c.GetString("access_token")
		user, ok := c.MustGet("user").(*models.User)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errors.ErrInternalServer)
			return
		}
		blacklist := &models.Blacklist{
			Email: user.Email,
			Token: accessToken,
		}
		if err := s.AuthRepository.AddToBlackList(blacklist); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleRegisterDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			DeviceToken string `json:"device_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		if err := s.AuthService.RegisterDeviceToken(c.GetString("userID"), body.DeviceToken); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "device token registered", http.StatusOK, nil, nil)
	}
}
