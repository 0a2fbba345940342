package server

import (
	"net/http"

	"github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/server/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleCreateBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid request body", http.StatusBadRequest))
			return
		}
		book := &models.Book{
			ID:          uuid.New(),
			OwnerID:     c.GetString("userID"),
			Title:       req.Title,
			Author:      req.Author,
			Description: req.Description,
			CoverURL:    req.CoverURL,
			Available:   true,
		}
		if err := s.BookRepository.CreateBook(book); err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "book created", http.StatusCreated, book, nil)
	}
}

func (s *Server) handleListBooks() gin.HandlerFunc {
	return func(c *gin.Context) {
		books, err := s.BookRepository.ListBooks()
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, books, nil)
	}
}

func (s *Server) handleMyBooks() gin.HandlerFunc {
	return func(c *gin.Context) {
		books, err := s.BookRepository.ListByOwner(c.GetString("userID"))
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, books, nil)
	}
}

func (s *Server) handleGetBook() gin.HandlerFunc {
	return func(c *gin.Context) {
		bookID, err := uuid.Parse(c.Param("bookID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.New("invalid book id", http.StatusBadRequest))
			return
		}
		book, err := s.BookRepository.GetBook(bookID)
		if err != nil {
			respondErr(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, book, nil)
	}
}
