package billing

import (
	"errors"
	"net/http"

	"covetalks-api/internal/reconcile"

	"github.com/gin-gonic/gin"
)

// SyncSubscription runs the reconciler for an account. Admins may sync any
// account; members only their own. Per-record failures are reported in the
// body, not as an HTTP error.
func SyncSubscription(reconciler *reconcile.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			AccountID uint `json:"account_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.AccountID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing or invalid account_id"})
			return
		}

		if c.GetString("role") != "admin" && body.AccountID != c.GetUint("account_id") {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Cannot sync another account"})
			return
		}

		report, err := reconciler.Reconcile(body.AccountID)
		if err != nil {
			if errors.Is(err, reconcile.ErrAccountNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Account not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		message := "Subscription data synced"
		if len(report.Created) == 0 && len(report.Updated) == 0 {
			message = "Nothing to sync"
		}

		c.JSON(http.StatusOK, gin.H{
			"success":                 true,
			"message":                 message,
			"results":                 report,
			"has_active_subscription": report.HasActiveSubscription,
		})
	}
}
