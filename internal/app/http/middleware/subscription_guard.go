package middleware

import (
	"errors"
	"net/http"
	"time"

	"covetalks-api/database"
	"covetalks-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireActiveSubscription gates routes behind a live subscription record:
// the account's newest record must be active or trialing with an unexpired
// period.
func RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetUint("account_id")
		if accountID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var sub billing.SubscriptionRecord
		err := database.DB.
			Where("account_id = ?", accountID).
			Order("created_at DESC").
			First(&sub).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Subscription required",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
			return
		}

		if sub.Status != billing.StatusActive && sub.Status != billing.StatusTrialing {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Subscription is not active",
			})
			return
		}

		if time.Now().After(sub.PeriodEnd) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your subscription has expired",
			})
			return
		}

		c.Next()
	}
}
