package accounts

import (
	"errors"
	"net/http"
	"os"

	"covetalks-api/database"
	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func GetCurrentAccount(c *gin.Context) {
	accountID := c.GetUint("account_id")
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var account accounts.Account
	if err := database.DB.First(&account, accountID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	var subDTO *SubscriptionDTO
	var sub billing.SubscriptionRecord
	err := database.DB.
		Where("account_id = ?", account.ID).
		Order("created_at DESC").
		First(&sub).Error
	if err == nil {
		subDTO = &SubscriptionDTO{
			Tier:                 sub.PlanTier,
			BillingPeriod:        sub.BillingPeriod,
			Status:               sub.Status,
			Amount:               sub.Amount,
			CurrentPeriodEnd:     &sub.PeriodEnd,
			EndedAt:              sub.EndedAt,
			StripeSubscriptionID: sub.StripeSubscriptionID,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	resp := MeResponse{
		Account: AccountDTO{
			ID:          account.ID,
			Email:       account.Email,
			Name:        account.Name,
			Role:        account.Role,
			AccountKind: account.AccountKind,
			IsVerified:  account.IsVerified,
		},
		Billing: BillingDTO{
			Subscription:     subDTO,
			StripeCustomerID: account.StripeCustomerID,
		},
	}

	c.JSON(http.StatusOK, resp)
}

func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	var t accounts.VerificationToken
	if err := database.DB.Where("token = ?", token).First(&t).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := database.DB.Model(&accounts.Account{}).Where("id = ?", t.AccountID).Update("is_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	database.DB.Delete(&t)

	redirectURL := os.Getenv("APP_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:5173"
	}
	c.Redirect(http.StatusTemporaryRedirect, redirectURL+"/signin")
}
