package admin

import (
	"net/http"
	"time"

	"covetalks-api/database"
	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type AdminAccount struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	AccountKind      string     `json:"account_kind"`
	IsVerified       bool       `json:"is_verified"`
	StripeCustomerID *string    `json:"stripe_customer_id,omitempty"`
	Tier             *string    `json:"tier,omitempty"`
	SubStatus        *string    `json:"subscription_status,omitempty"`
	PeriodEnd        *time.Time `json:"period_end,omitempty"`
}

type AdminPayment struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
	ReceiptURL  *string `json:"receipt_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type AdminStats struct {
	TotalAccounts        int64            `json:"total_accounts"`
	TotalRevenue         float64          `json:"total_revenue"`
	ActiveSubscriptions  int64            `json:"active_subscriptions"`
	SubscriptionsPerTier map[string]int64 `json:"subscriptions_per_tier"`
}

func AdminDashboard(c *gin.Context) {
	var stats AdminStats

	if err := database.DB.Model(&accounts.Account{}).Count(&stats.TotalAccounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	database.DB.Model(&billing.PaymentRecord{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue)

	database.DB.Model(&billing.SubscriptionRecord{}).
		Where("status = ?", billing.StatusActive).
		Count(&stats.ActiveSubscriptions)

	stats.SubscriptionsPerTier = map[string]int64{}
	var rows []struct {
		PlanTier string
		N        int64
	}
	database.DB.Model(&billing.SubscriptionRecord{}).
		Select("plan_tier, COUNT(*) AS n").
		Where("status = ?", billing.StatusActive).
		Group("plan_tier").
		Scan(&rows)
	for _, row := range rows {
		stats.SubscriptionsPerTier[row.PlanTier] = row.N
	}

	c.JSON(http.StatusOK, stats)
}

func ListAllAccounts(c *gin.Context) {
	var all []accounts.Account
	if err := database.DB.Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load accounts"})
		return
	}

	out := make([]AdminAccount, 0, len(all))
	for i := range all {
		out = append(out, buildAdminAccount(&all[i]))
	}

	c.JSON(http.StatusOK, out)
}

func GetAccountDetails(c *gin.Context) {
	var account accounts.Account
	if err := database.DB.First(&account, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	var subs []billing.SubscriptionRecord
	database.DB.Where("account_id = ?", account.ID).Order("created_at DESC").Find(&subs)

	var payments []billing.PaymentRecord
	database.DB.Where("account_id = ?", account.ID).Order("created_at DESC").Find(&payments)

	c.JSON(http.StatusOK, gin.H{
		"account":       buildAdminAccount(&account),
		"subscriptions": subs,
		"payments":      payments,
	})
}

func ListAllPayments(c *gin.Context) {
	var payments []billing.PaymentRecord
	if err := database.DB.
		Preload("Account").
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	out := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, AdminPayment{
			ID:          p.ID,
			Email:       p.Account.Email,
			Amount:      p.Amount,
			Status:      p.Status,
			Description: p.Description,
			ReceiptURL:  p.ReceiptURL,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, out)
}

func buildAdminAccount(a *accounts.Account) AdminAccount {
	out := AdminAccount{
		ID:               a.ID,
		Name:             a.Name,
		Email:            a.Email,
		Role:             a.Role,
		AccountKind:      a.AccountKind,
		IsVerified:       a.IsVerified,
		StripeCustomerID: a.StripeCustomerID,
	}

	var sub billing.SubscriptionRecord
	if err := database.DB.Where("account_id = ?", a.ID).Order("created_at DESC").First(&sub).Error; err == nil {
		out.Tier = &sub.PlanTier
		out.SubStatus = &sub.Status
		out.PeriodEnd = &sub.PeriodEnd
	}

	return out
}
