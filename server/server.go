package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookswapng/bookswap/config"
	"github.com/bookswapng/bookswap/db"
	"github.com/bookswapng/bookswap/mailingservices"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/bookswapng/bookswap/services"
)

type Server struct {
	Config                 *config.Config
	Mail                   *mailingservices.Mailgun
	AuthRepository         db.AuthRepository
	AuthService            services.AuthService
	BookRepository         db.BookRepository
	ConversationRepository db.ConversationRepository
	MessageRepository      db.MessageRepository
	ExchangeRepository     db.ExchangeRepository
	ChatService            services.ChatService
	ExchangeService        services.ExchangeService
	MediaService           services.MediaService
	Hub                    *realtime.Hub
	DB                     db.GormDB
}

func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exited")
}
