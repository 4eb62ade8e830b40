package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/salonmate/salonmate/internal/analytics"
	"github.com/salonmate/salonmate/internal/calendar"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/service"
)

// Timestamps are stored as Unix seconds and exchanged as RFC 3339 UTC.
// Unset timestamps are null.

func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func unixTimeValue(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// optionalTime distinguishes an absent JSON field (Set false) from an
// explicit null (Set true, Value nil).
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// Auth

type signupRequest struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type selectShopRequest struct {
	ShopID string `json:"shop_id" validate:"required"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUser(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   unixTimeValue(u.CreatedAt),
	}
}

type sessionResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func toSession(s *service.Session) sessionResponse {
	return sessionResponse{
		User:         toUser(s.User),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt.UTC(),
	}
}

type meResponse struct {
	User           userResponse   `json:"user"`
	Shops          []shopResponse `json:"shops"`
	SelectedShopID *string        `json:"selected_shop_id"`
}

func toMe(p *service.Profile) meResponse {
	resp := meResponse{User: toUser(p.User), Shops: make([]shopResponse, 0, len(p.Shops))}
	for _, s := range p.Shops {
		resp.Shops = append(resp.Shops, toShopWithRole(s))
	}
	if p.SelectedShopID != "" {
		resp.SelectedShopID = &p.SelectedShopID
	}
	return resp
}

// Shops

type createShopRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"required,oneof=hair nail skin other"`
	Address  string `json:"address" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=30"`
	Timezone string `json:"timezone" validate:"max=64"`
}

type updateShopRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
	Category *string `json:"category" validate:"omitnil,oneof=hair nail skin other"`
	Address  *string `json:"address" validate:"omitnil,max=200"`
	Phone    *string `json:"phone" validate:"omitnil,max=30"`
	Timezone *string `json:"timezone" validate:"omitnil,max=64"`
}

func (r updateShopRequest) patch() service.ShopPatch {
	p := service.ShopPatch{Name: r.Name, Address: r.Address, Phone: r.Phone, Timezone: r.Timezone}
	if r.Category != nil {
		c := models.Category(*r.Category)
		p.Category = &c
	}
	return p
}

type shopResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Address         string     `json:"address"`
	Phone           string     `json:"phone"`
	Timezone        string     `json:"timezone"`
	StyleTags       []string   `json:"style_tags"`
	Role            string     `json:"role,omitempty"`
	ReviewsSyncedAt *time.Time `json:"reviews_synced_at"`
	PostsSyncedAt   *time.Time `json:"posts_synced_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toShop(s *models.Shop) shopResponse {
	tags := s.StyleTags
	if tags == nil {
		tags = []string{}
	}
	return shopResponse{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		Name:            s.Name,
		Category:        string(s.Category),
		Address:         s.Address,
		Phone:           s.Phone,
		Timezone:        s.Timezone,
		StyleTags:       tags,
		ReviewsSyncedAt: unixTime(s.ReviewsSyncedAt),
		PostsSyncedAt:   unixTime(s.PostsSyncedAt),
		CreatedAt:       unixTimeValue(s.CreatedAt),
		UpdatedAt:       unixTimeValue(s.UpdatedAt),
	}
}

func toShopWithRole(s *models.ShopWithRole) shopResponse {
	resp := toShop(&s.Shop)
	resp.Role = string(s.Role)
	return resp
}

type styleTagsRequest struct {
	Tags []string `json:"tags"`
}

type styleTagsResponse struct {
	Tags []string `json:"tags"`
}

// Team

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=manager staff"`
}

type teamMemberResponse struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTeamMember(m *models.TeamMember) teamMemberResponse {
	resp := teamMemberResponse{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		Status:      string(m.Status),
		CreatedAt:   unixTimeValue(m.CreatedAt),
	}
	if m.UserID != "" {
		resp.UserID = &m.UserID
	}
	return resp
}

// Media

type createMediaRequest struct {
	URL     string `json:"url" validate:"required,http_url"`
	Kind    string `json:"kind" validate:"required,oneof=image video"`
	Width   int    `json:"width" validate:"gte=0"`
	Height  int    `json:"height" validate:"gte=0"`
	AltText string `json:"alt_text" validate:"max=300"`
}

type mediaResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	AltText   string    `json:"alt_text"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toMedia(m *models.MediaItem) mediaResponse {
	return mediaResponse{
		ID:        m.ID,
		URL:       m.URL,
		Kind:      string(m.Kind),
		Width:     m.Width,
		Height:    m.Height,
		AltText:   m.AltText,
		CreatedBy: m.CreatedBy,
		CreatedAt: unixTimeValue(m.CreatedAt),
	}
}

// Subscription

type subscriptionResponse struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	AIGenerationLimit int        `json:"ai_generation_limit"`
	AIGenerationsUsed int        `json:"ai_generations_used"`
	Period            string     `json:"period"`
	RenewsAt          *time.Time `json:"renews_at"`
}

func toSubscription(u *service.SubscriptionUsage) subscriptionResponse {
	return subscriptionResponse{
		Plan:              string(u.Plan),
		Status:            string(u.Subscription.Status),
		AIGenerationLimit: u.Limit,
		AIGenerationsUsed: u.Used,
		Period:            u.Period,
		RenewsAt:          unixTime(u.Subscription.RenewsAt),
	}
}

// Reviews

type reviewResponse struct {
	ID              string     `json:"id"`
	ShopID          string     `json:"shop_id"`
	Platform        string     `json:"platform"`
	ExternalID      string     `json:"external_id"`
	AuthorName      string     `json:"author_name"`
	Rating          int        `json:"rating"`
	Content         string     `json:"content"`
	ReviewCreatedAt *time.Time `json:"review_created_at"`
	Status          string     `json:"status"`
	AIResponse      *string    `json:"ai_response"`
	AIGeneratedAt   *time.Time `json:"ai_generated_at"`
	Response        *string    `json:"response"`
	RepliedAt       *time.Time `json:"replied_at"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toReview(r *models.Review) reviewResponse {
	return reviewResponse{
		ID:              r.ID,
		ShopID:          r.ShopID,
		Platform:        string(r.Platform),
		ExternalID:      r.ExternalID,
		AuthorName:      r.AuthorName,
		Rating:          r.Rating,
		Content:         r.Content,
		ReviewCreatedAt: unixTime(r.ReviewCreatedAt),
		Status:          string(r.Status),
		AIResponse:      optionalString(r.AIResponse),
		AIGeneratedAt:   unixTime(r.AIGeneratedAt),
		Response:        optionalString(r.Response),
		RepliedAt:       unixTime(r.RepliedAt),
	}
}

type reviewListResponse struct {
	Reviews  []reviewResponse `json:"reviews"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type platformStatsResponse struct {
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	PendingCount  int     `json:"pending_count"`
}

type reviewStatsResponse struct {
	TotalReviews  int                              `json:"total_reviews"`
	AverageRating float64                          `json:"average_rating"`
	ResponseRate  float64                          `json:"response_rate"`
	PendingCount  int                              `json:"pending_count"`
	ByPlatform    map[string]platformStatsResponse `json:"by_platform"`
	LastSyncedAt  *time.Time                       `json:"last_synced_at"`
}

func toReviewStats(s *service.ReviewStats) reviewStatsResponse {
	resp := reviewStatsResponse{
		TotalReviews:  s.TotalReviews,
		AverageRating: s.AverageRating,
		ResponseRate:  s.ResponseRate,
		PendingCount:  s.PendingCount,
		ByPlatform:    make(map[string]platformStatsResponse, len(s.ByPlatform)),
		LastSyncedAt:  unixTime(s.LastSyncedAt),
	}
	for p, ps := range s.ByPlatform {
		resp.ByPlatform[string(p)] = platformStatsResponse{
			TotalReviews:  ps.TotalReviews,
			AverageRating: ps.AverageRating,
			PendingCount:  ps.PendingCount,
		}
	}
	return resp
}

type generateResponseRequest struct {
	Tone string `json:"tone" validate:"omitempty,oneof=friendly formal apologetic"`
}

type aiResponseResponse struct {
	ReviewID    string    `json:"review_id"`
	AIResponse  string    `json:"ai_response"`
	GeneratedAt time.Time `json:"generated_at"`
}

type saveResponseRequest struct {
	Response string `json:"response" validate:"required,max=1000"`
}

type publishRequest struct {
	Response *string `json:"response" validate:"omitnil,max=1000"`
}

type publishResponse struct {
	ReviewID  string     `json:"review_id"`
	Status    string     `json:"status"`
	RepliedAt *time.Time `json:"replied_at"`
}

// Posts

type createPostRequest struct {
	Caption     string     `json:"caption"`
	Hashtags    []string   `json:"hashtags" validate:"max=30"`
	MediaIDs    []string   `json:"media_ids" validate:"max=10"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type updatePostRequest struct {
	Caption     *string      `json:"caption"`
	Hashtags    *[]string    `json:"hashtags" validate:"omitnil,max=30"`
	MediaIDs    *[]string    `json:"media_ids" validate:"omitnil,max=10"`
	ScheduledAt optionalTime `json:"scheduled_at"`
}

func (r updatePostRequest) patch() service.PostPatch {
	return service.PostPatch{
		Caption:     r.Caption,
		Hashtags:    r.Hashtags,
		MediaIDs:    r.MediaIDs,
		ScheduleSet: r.ScheduledAt.Set,
		ScheduledAt: r.ScheduledAt.Value,
	}
}

type postResponse struct {
	ID            string     `json:"id"`
	ShopID        string     `json:"shop_id"`
	Caption       string     `json:"caption"`
	Hashtags      []string   `json:"hashtags"`
	MediaIDs      []string   `json:"media_ids"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
	PublishedAt   *time.Time `json:"published_at"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toPost(p *models.Post) postResponse {
	hashtags, media := p.Hashtags, p.MediaIDs
	if hashtags == nil {
		hashtags = []string{}
	}
	if media == nil {
		media = []string{}
	}
	return postResponse{
		ID:            p.ID,
		ShopID:        p.ShopID,
		Caption:       p.Caption,
		Hashtags:      hashtags,
		MediaIDs:      media,
		Status:        string(p.Status),
		ScheduledAt:   unixTime(p.ScheduledAt),
		PublishedAt:   unixTime(p.PublishedAt),
		FailureReason: p.FailureReason,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     unixTimeValue(p.CreatedAt),
		UpdatedAt:     unixTimeValue(p.UpdatedAt),
	}
}

func toPosts(posts []*models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPost(p))
	}
	return out
}

type captionRequest struct {
	Prompt string `json:"prompt" validate:"required,max=500"`
	Tone   string `json:"tone" validate:"omitempty,oneof=friendly formal apologetic"`
}

type captionResponse struct {
	Caption     string    `json:"caption"`
	Hashtags    []string  `json:"hashtags"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Calendar

type calendarEntryResponse struct {
	Date  string         `json:"date"`
	Posts []postResponse `json:"posts"`
}

type calendarResponse struct {
	Entries      []calendarEntryResponse `json:"entries"`
	LastSyncedAt *time.Time              `json:"last_synced_at"`
}

func toCalendar(v *service.CalendarView) calendarResponse {
	resp := calendarResponse{
		Entries:      make([]calendarEntryResponse, 0, len(v.Entries)),
		LastSyncedAt: unixTime(v.LastSyncedAt),
	}
	for _, e := range v.Entries {
		resp.Entries = append(resp.Entries, toCalendarEntry(e))
	}
	return resp
}

func toCalendarEntry(e calendar.Entry) calendarEntryResponse {
	return calendarEntryResponse{Date: e.Date, Posts: toPosts(e.Posts)}
}

// Analytics

type dailyCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type analyticsResponse struct {
	PeriodDays         int                  `json:"period_days"`
	NewReviews         int                  `json:"new_reviews"`
	AverageRating      float64              `json:"average_rating"`
	RatingDistribution map[int]int          `json:"rating_distribution"`
	ResponsesPublished int                  `json:"responses_published"`
	ResponseRate       float64              `json:"response_rate"`
	PostsPublished     int                  `json:"posts_published"`
	PostsScheduled     int                  `json:"posts_scheduled"`
	DailyReviews       []dailyCountResponse `json:"daily_reviews"`
}

func toAnalytics(s *analytics.Summary) analyticsResponse {
	resp := analyticsResponse{
		PeriodDays:         s.PeriodDays,
		NewReviews:         s.NewReviews,
		AverageRating:      s.AverageRating,
		RatingDistribution: s.RatingDistribution,
		ResponsesPublished: s.ResponsesPublished,
		ResponseRate:       s.ResponseRate,
		PostsPublished:     s.PostsPublished,
		PostsScheduled:     s.PostsScheduled,
		DailyReviews:       make([]dailyCountResponse, 0, len(s.DailyReviews)),
	}
	for _, d := range s.DailyReviews {
		resp.DailyReviews = append(resp.DailyReviews, dailyCountResponse{Date: d.Date, Count: d.Count})
	}
	return resp
}
