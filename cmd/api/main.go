package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"motomarket/internal/adapter/api"
	"motomarket/internal/adapter/api/handler"
	apimiddleware "motomarket/internal/adapter/api/middleware"
	"motomarket/internal/adapter/api/router"
	"motomarket/internal/adapter/repository"
	"motomarket/internal/infrastructure/auth"
	"motomarket/internal/infrastructure/mailer"
	"motomarket/internal/infrastructure/payment"
	"motomarket/internal/infrastructure/sms"
	"motomarket/internal/infrastructure/storage"
	"motomarket/internal/usecase"
	"motomarket/pkg/config"
	"motomarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirestoreProject)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	paymentRepo := repository.NewFirestorePaymentRepository(firestoreClient)
	subscriptionRepo := repository.NewFirestoreSubscriptionRepository(firestoreClient)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	mailClient := mailer.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	smsClient := sms.NewClient(cfg.SMSAPIURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber)
	chargeClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentServerKey, cfg.PaymentWebhookSecret)

	authUseCase := usecase.NewAuthUseCase(userRepo, mailClient, smsClient, tokenManager, cfg.BaseURL, cfg.OutboundTimeout)
	listingUseCase := usecase.NewListingUseCase(listingRepo, userRepo, storageClient)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, listingRepo, storageClient)
	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, listingRepo, chargeClient)
	subscriptionUseCase := usecase.NewSubscriptionUseCase(subscriptionRepo, paymentRepo, userRepo)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(tokenManager)
	rateLimiter := apimiddleware.NewRateLimiter(rate.Limit(10), 30)

	secureCookie := cfg.Environment == "production"
	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authUseCase, cfg.CookieExpiry, secureCookie),
		Listing:      handler.NewListingHandler(listingUseCase),
		Chat:         handler.NewChatHandler(chatUseCase),
		Payment:      handler.NewPaymentHandler(paymentUseCase),
		Subscription: handler.NewSubscriptionHandler(subscriptionUseCase),
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	router.Setup(e, handlers, authMiddleware, rateLimiter)

	go runExpirySweep(ctx, listingUseCase)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// runExpirySweep flips overdue listings to expired once an hour.
func runExpirySweep(ctx context.Context, listingUseCase *usecase.ListingUseCase) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := listingUseCase.ExpireDueListings(ctx); err != nil {
				logger.Error("listing expiry sweep failed: %v", err)
			}
		}
	}
}
