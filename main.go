package main

import (
	"context"
	"log"
	"os"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/bookswapng/bookswap/config"
	"github.com/bookswapng/bookswap/db"
	"github.com/bookswapng/bookswap/mailingservices"
	"github.com/bookswapng/bookswap/realtime"
	"github.com/bookswapng/bookswap/server"
	"github.com/bookswapng/bookswap/services"
	"google.golang.org/api/option"
)

// initMessaging wires Firebase Cloud Messaging when credentials are present.
// Push is optional; the service runs without it.
func initMessaging(conf *config.Config) *messaging.Client {
	credentials := conf.GoogleApplicationCredentials
	if credentials == "" {
		credentials = "./google-services.json"
	}
	if _, err := os.Stat(credentials); err != nil {
		log.Println("firebase credentials not found, push notifications disabled")
		return nil
	}

	opt := option.WithCredentialsFile(credentials)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("error initializing Firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("error getting Messaging client: %v", err)
		return nil
	}
	log.Println("Firebase Messaging client initialized")
	return client
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init()

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	bookRepo := db.NewBookRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)
	exchangeRepo := db.NewExchangeRepo(gormDB)

	hub := realtime.NewHub()
	notifier := services.NewNotificationService(initMessaging(conf))

	authService := services.NewAuthService(authRepo, conf)
	chatService := services.NewChatService(conversationRepo, messageRepo, authRepo, hub, notifier, conf)
	exchangeService := services.NewExchangeService(exchangeRepo, bookRepo, conversationRepo, authRepo, hub, notifier, mailgunClient, conf)
	mediaService := services.NewMediaService(conf)

	s := &server.Server{
		Mail:                   mailgunClient,
		Config:                 conf,
		AuthRepository:         authRepo,
		AuthService:            authService,
		BookRepository:         bookRepo,
		ConversationRepository: conversationRepo,
		MessageRepository:      messageRepo,
		ExchangeRepository:     exchangeRepo,
		ChatService:            chatService,
		ExchangeService:        exchangeService,
		MediaService:           mediaService,
		Hub:                    hub,
		DB:                     *gormDB,
	}

	s.Start()
}
