package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	limitMessages := messageRateLimiter()

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", s.handleLogin())
	apirouter.GET("/books", s.handleListBooks())
	apirouter.GET("/books/:bookID", s.handleGetBook())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.PUT("/me/device-token", s.handleRegisterDeviceToken())

	authorized.POST("/books", s.handleCreateBook())
	authorized.GET("/me/books", s.handleMyBooks())

	authorized.POST("/exchanges", s.handleProposeExchange())
	authorized.GET("/exchanges", s.handleListExchanges())
	authorized.POST("/exchanges/:exchangeID/accept", s.handleAcceptExchange())
	authorized.POST("/exchanges/:exchangeID/reject", s.handleRejectExchange())
	authorized.POST("/exchanges/:exchangeID/complete", s.handleCompleteExchange())
	authorized.POST("/exchanges/:exchangeID/chat", s.handleOpenExchangeChat())

	authorized.GET("/conversations", s.handleListConversations())
	authorized.POST("/conversations", s.handleOpenConversation())
	authorized.GET("/conversations/:conversationID/messages", s.handleGetMessages())
	authorized.POST("/conversations/:conversationID/messages", limitMessages, s.handleSendMessage())
	authorized.PUT("/conversations/:conversationID/archive", s.handleArchiveConversation())
	authorized.PUT("/conversations/:conversationID/unarchive", s.handleUnarchiveConversation())
	authorized.PUT("/messages/:messageID/delivered", s.handleMarkDelivered())
	authorized.PUT("/messages/:messageID/read", s.handleMarkRead())
	authorized.POST("/attachments", s.handleUploadAttachment())

	authorized.GET("/ws", s.handleSubscribe())
}
