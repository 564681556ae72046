package speakers

import (
	"net/http"
	"strconv"

	"covetalks-api/database"
	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/speakers"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 50

// GET /speakers?topic=...&location=...&page=1
func ListSpeakers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	q := database.DB.Model(&speakers.Profile{}).Preload("Account")

	if topic := c.Query("topic"); topic != "" {
		q = q.Where("topics ILIKE ?", "%"+topic+"%")
	}
	if location := c.Query("location"); location != "" {
		q = q.Where("location ILIKE ?", "%"+location+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load speakers"})
		return
	}

	var profiles []speakers.Profile
	if err := q.Order("updated_at DESC").
		Limit(maxPageSize).
		Offset((page - 1) * maxPageSize).
		Find(&profiles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load speakers"})
		return
	}

	results := make([]ProfileDTO, 0, len(profiles))
	for i := range profiles {
		results = append(results, buildProfileDTO(&profiles[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"speakers": results,
		"total":    total,
		"page":     page,
	})
}

// GET /speakers/:id
func GetSpeaker(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid speaker id"})
		return
	}

	var profile speakers.Profile
	if err := database.DB.Preload("Account").First(&profile, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Speaker not found"})
		return
	}

	c.JSON(http.StatusOK, buildProfileDTO(&profile))
}

// PUT /speakers/me — upsert the caller's own profile. Speaker accounts only.
func UpdateOwnProfile(c *gin.Context) {
	accountID := c.GetUint("account_id")
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if c.GetString("account_kind") != accounts.KindSpeaker {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only speaker accounts have a directory profile"})
		return
	}

	var body struct {
		Bio         string   `json:"bio"`
		Topics      string   `json:"topics"`
		Location    string   `json:"location"`
		WebsiteURL  *string  `json:"website_url"`
		SpeakingFee *float64 `json:"speaking_fee"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	var profile speakers.Profile
	err := database.DB.Where("account_id = ?", accountID).First(&profile).Error
	if err != nil {
		profile = speakers.Profile{AccountID: accountID}
	}

	profile.Bio = body.Bio
	profile.Topics = body.Topics
	profile.Location = body.Location
	profile.WebsiteURL = body.WebsiteURL
	profile.SpeakingFee = body.SpeakingFee

	if err := database.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, buildProfileDTO(&profile))
}

type ProfileDTO struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Bio         string   `json:"bio"`
	Topics      string   `json:"topics"`
	Location    string   `json:"location"`
	WebsiteURL  *string  `json:"website_url"`
	SpeakingFee *float64 `json:"speaking_fee"`
}

func buildProfileDTO(p *speakers.Profile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID,
		Name:        p.Account.Name,
		Bio:         p.Bio,
		Topics:      p.Topics,
		Location:    p.Location,
		WebsiteURL:  p.WebsiteURL,
		SpeakingFee: p.SpeakingFee,
	}
}
