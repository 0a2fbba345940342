package server

import (
	"net/http"

	"github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/server/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleProposeExchange() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProposeExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		exchange, err := s.ExchangeService.Propose(c.GetString("userID"), req.RequestedBookID, req.OfferedBookID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "swap request created", http.StatusCreated, exchange, nil)
	}
}

// handleListExchanges serves both subscription roles: ?role=owner for swaps
// against the caller's books, ?role=requester for swaps the caller proposed.
func (s *Server) handleListExchanges() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchanges, err := s.ExchangeService.ListForUser(c.GetString("userID"), c.Query("role"))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, exchanges, nil)
	}
}

func (s *Server) handleAcceptExchange() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchangeID, err := uuid.Parse(c.Param("exchangeID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid exchange id", http.StatusBadRequest))
			return
		}
		exchange, err := s.ExchangeService.Accept(c.GetString("userID"), exchangeID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "swap accepted", http.StatusOK, exchange, nil)
	}
}

func (s *Server) handleRejectExchange() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchangeID, err := uuid.Parse(c.Param("exchangeID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid exchange id", http.StatusBadRequest))
			return
		}
		var req models.RejectExchangeRequest
		// Reason is optional; an unreadable body falls back to the default.
		_ = c.ShouldBindJSON(&req)
		exchange, err := s.ExchangeService.Reject(c.GetString("userID"), exchangeID, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "swap rejected", http.StatusOK, exchange, nil)
	}
}

func (s *Server) handleCompleteExchange() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchangeID, err := uuid.Parse(c.Param("exchangeID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid exchange id", http.StatusBadRequest))
			return
		}
		exchange, err := s.ExchangeService.Complete(c.GetString("userID"), exchangeID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "swap completed", http.StatusOK, exchange, nil)
	}
}

func (s *Server) handleOpenExchangeChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		exchangeID, err := uuid.Parse(c.Param("exchangeID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid exchange id", http.StatusBadRequest))
			return
		}
		exchange, err := s.ExchangeService.OpenChat(c.GetString("userID"), exchangeID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "chat opened", http.StatusOK, exchange, nil)
	}
}
