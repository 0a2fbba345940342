package server

import (
	"net/http"

	"github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/server/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleOpenConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			UserID string `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		conversation, err := s.ChatService.OpenDirectConversation(c.GetString("userID"), body.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, conversation, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversations, err := s.ChatService.ListConversations(c.GetString("userID"))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, conversations, nil)
	}
}

func (s *Server) handleGetMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := s.ChatService.History(c.GetString("userID"), c.Param("conversationID"))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		message, err := s.ChatService.SendMessage(c.GetString("userID"), c.Param("conversationID"), req.Content, req.AttachmentURLs)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, message, nil)
	}
}

func (s *Server) handleMarkDelivered() gin.HandlerFunc {
	return s.handleAdvanceMessage(func(actorID string, messageID uuid.UUID) (*models.Message, error) {
		return s.ChatService.MarkDelivered(actorID, messageID)
	})
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
	return s.handleAdvanceMessage(func(actorID string, messageID uuid.UUID) (*models.Message, error) {
		return s.ChatService.MarkRead(actorID, messageID)
	})
}

func (s *Server) handleAdvanceMessage(advance func(string, uuid.UUID) (*models.Message, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID, err := uuid.Parse(c.Param("messageID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid message id", http.StatusBadRequest))
			return
		}
		message, err := advance(c.GetString("userID"), messageID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, message, nil)
	}
}

func (s *Server) handleArchiveConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ChatService.ArchiveConversation(c.GetString("userID"), c.Param("conversationID")); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "conversation archived", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUnarchiveConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ChatService.UnarchiveConversation(c.GetString("userID"), c.Param("conversationID")); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "conversation unarchived", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUploadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("file is required", http.StatusBadRequest))
			return
		}
		fullURL, thumbURL, err := s.MediaService.UploadAttachment(fileHeader, c.GetString("userID"))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "attachment uploaded", http.StatusCreated, gin.H{
			"url":           fullURL,
			"thumbnail_url": thumbURL,
		}, nil)
	}
}
