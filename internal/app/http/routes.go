package routes

import (
	accountsapi "covetalks-api/internal/api/accounts"
	adminapi "covetalks-api/internal/api/admin"
	authapi "covetalks-api/internal/api/auth"
	"covetalks-api/internal/api/billing"
	"covetalks-api/internal/api/plans"
	speakersapi "covetalks-api/internal/api/speakers"
	stripewebhooks "covetalks-api/internal/api/stripewebhook"
	"covetalks-api/internal/app/http/middleware"
	"covetalks-api/internal/reconcile"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, reconciler *reconcile.Reconciler) {
	// Webhook takes the raw body; keep it outside the sanitizer.
	r.POST("/webhook", stripewebhooks.StripeWebhook(reconciler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/plans", plans.ListPlansFromStripe)
	r.GET("/speakers", speakersapi.ListSpeakers)
	r.GET("/speakers/:id", speakersapi.GetSpeaker)

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/verify", accountsapi.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", accountsapi.GetCurrentAccount)
	auth.GET("/payments", billing.GetPaymentHistory)
	auth.POST("/create-checkout-session", billing.CreateCheckoutSession)
	auth.POST("/billing-portal", billing.CreateBillingPortal)
	auth.POST("/billing/sync", billing.SyncSubscription(reconciler))
	auth.POST("/change-password", authapi.ChangePassword)

	// Subscribed members
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequireActiveSubscription())
	subscribed.PUT("/speakers/me", speakersapi.UpdateOwnProfile)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.AdminDashboard)
	admin.GET("/accounts", adminapi.ListAllAccounts)
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.GET("/account/:id", adminapi.GetAccountDetails)
}
