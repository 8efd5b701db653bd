package router

import (
	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/handler"
	"motomarket/internal/adapter/api/middleware"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Listing      *handler.ListingHandler
	Chat         *handler.ChatHandler
	Payment      *handler.PaymentHandler
	Subscription *handler.SubscriptionHandler
}

// Setup mounts the whole /v1 surface. Public routes are rate limited; the
// rest sits behind bearer auth.
func Setup(e *echo.Echo, h Handlers, authMW *middleware.AuthMiddleware, rl *middleware.RateLimiter) {
	v1 := e.Group("/v1", rl.Limit)

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/logout", h.Auth.Logout)
	auth.GET("/verify-email/:token", h.Auth.VerifyEmail)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.PUT("/reset-password/:token", h.Auth.ResetPassword)

	authed := auth.Group("", authMW.Authenticate)
	authed.GET("/me", h.Auth.Me)
	authed.POST("/verify-phone", h.Auth.VerifyPhone)
	authed.POST("/resend-phone-verification", h.Auth.ResendPhoneVerification)
	authed.PUT("/update-details", h.Auth.UpdateDetails)
	authed.PUT("/update-password", h.Auth.UpdatePassword)

	listings := v1.Group("/listings")
	listings.GET("", h.Listing.Search)
	listings.GET("/:id", h.Listing.Get)
	listings.POST("", h.Listing.Create, authMW.Authenticate)
	listings.PUT("/:id", h.Listing.Update, authMW.Authenticate)
	listings.DELETE("/:id", h.Listing.Delete, authMW.Authenticate)
	listings.PUT("/:id/sold", h.Listing.MarkAsSold, authMW.Authenticate)
	listings.PUT("/:id/favorite", h.Listing.Favorite, authMW.Authenticate)
	listings.PUT("/:id/unfavorite", h.Listing.Unfavorite, authMW.Authenticate)

	conversations := v1.Group("/conversations", authMW.Authenticate)
	conversations.POST("", h.Chat.Start)
	conversations.GET("", h.Chat.List)
	conversations.GET("/:id", h.Chat.Get)
	conversations.PUT("/:id/archive", h.Chat.Archive)
	conversations.POST("/:id/messages", h.Chat.SendMessage)
	conversations.GET("/:id/messages", h.Chat.ListMessages)
	conversations.PUT("/messages/:id/respond-offer", h.Chat.RespondToOffer)

	payments := v1.Group("/payments")
	payments.POST("/webhook", h.Payment.Webhook)
	payments.POST("", h.Payment.Create, authMW.Authenticate)
	payments.POST("/renew/:id", h.Payment.Renew, authMW.Authenticate)
	payments.GET("", h.Payment.List, authMW.Authenticate)
	payments.GET("/:id", h.Payment.Get, authMW.Authenticate)

	subscriptions := v1.Group("/subscriptions", authMW.Authenticate)
	subscriptions.POST("", h.Subscription.Create)
	subscriptions.GET("", h.Subscription.List)
	subscriptions.GET("/:id", h.Subscription.Get)
	subscriptions.PUT("/:id", h.Subscription.Update)
	subscriptions.PUT("/:id/cancel", h.Subscription.Cancel)
	subscriptions.PUT("/:id/renew", h.Subscription.Renew)
}
