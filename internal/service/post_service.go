package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/ai"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
	"github.com/salonmate/salonmate/internal/textedit"
)

const MaxCaptionPromptLength = 500

// PostInput holds the fields of a new post. A nil ScheduledAt creates a
// draft.
type PostInput struct {
	Caption     string
	Hashtags    []string
	MediaIDs    []string
	ScheduledAt *time.Time
}

// PostPatch holds the fields to change. Nil fields are left untouched. When
// ScheduleSet is true ScheduledAt replaces the schedule, and a nil
// ScheduledAt unschedules the post.
type PostPatch struct {
	Caption     *string
	Hashtags    *[]string
	MediaIDs    *[]string
	ScheduleSet bool
	ScheduledAt *time.Time
}

// CaptionDraft is an AI-written caption that has not been saved yet.
type CaptionDraft struct {
	Caption     string
	Hashtags    []string
	GeneratedAt time.Time
}

// PostService manages Instagram posts.
type PostService struct {
	store         storage.Store
	generator     ai.Generator
	subscriptions *SubscriptionService
	now           func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(store storage.Store, generator ai.Generator, subscriptions *SubscriptionService) *PostService {
	return &PostService{
		store:         store,
		generator:     generator,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

// List returns the shop's posts, newest first. An empty status matches all.
func (s *PostService) List(ctx context.Context, shopID string, status models.PostStatus) ([]*models.Post, error) {
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError("status", "status must be one of draft, scheduled, published, failed")
	}
	return s.store.ListPosts(ctx, shopID, status)
}

// Get returns one post of the shop.
func (s *PostService) Get(ctx context.Context, shopID, postID string) (*models.Post, error) {
	return s.store.GetPost(ctx, shopID, postID)
}

// Create validates and stores a new post.
func (s *PostService) Create(ctx context.Context, shopID, userID string, in PostInput) (*models.Post, error) {
	slog.Info("CreatePost request received", "shop_id", shopID, "scheduled", in.ScheduledAt != nil)

	post := &models.Post{
		ShopID:    shopID,
		Caption:   strings.TrimSpace(in.Caption),
		Status:    models.PostDraft,
		CreatedBy: userID,
	}
	if err := s.apply(ctx, post, in.Hashtags, in.MediaIDs, true, in.ScheduledAt); err != nil {
		slog.Warn("CreatePost rejected", "shop_id", shopID, "error", err)
		return nil, err
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		slog.Error("CreatePost failed", "shop_id", shopID, "error", err)
		return nil, err
	}

	slog.Info("Post created", "shop_id", shopID, "post_id", post.ID, "status", post.Status)
	return post, nil
}

// Update applies a patch. Published posts cannot be edited.
func (s *PostService) Update(ctx context.Context, shopID, postID string, patch PostPatch) (*models.Post, error) {
	slog.Info("UpdatePost request received", "shop_id", shopID, "post_id", postID)

	post, err := s.store.GetPost(ctx, shopID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostPublished {
		return nil, fmt.Errorf("post %s is already published: %w", postID, models.ErrConflict)
	}

	if patch.Caption != nil {
		post.Caption = strings.TrimSpace(*patch.Caption)
	}
	hashtags := post.Hashtags
	if patch.Hashtags != nil {
		hashtags = *patch.Hashtags
		if patch.Caption == nil {
			post.Caption = removeDroppedTags(post.Caption, post.Hashtags, hashtags)
		}
	}
	mediaIDs := post.MediaIDs
	if patch.MediaIDs != nil {
		mediaIDs = *patch.MediaIDs
	}

	if err := s.apply(ctx, post, hashtags, mediaIDs, patch.ScheduleSet, patch.ScheduledAt); err != nil {
		slog.Warn("UpdatePost rejected", "post_id", postID, "error", err)
		return nil, err
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		slog.Error("UpdatePost failed", "post_id", postID, "error", err)
		return nil, err
	}

	slog.Info("Post updated", "shop_id", shopID, "post_id", postID, "status", post.Status)
	return post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, shopID, postID string) error {
	if err := s.store.DeletePost(ctx, shopID, postID); err != nil {
		logFailure("DeletePost failed", err, "shop_id", shopID, "post_id", postID)
		return err
	}
	slog.Info("Post deleted", "shop_id", shopID, "post_id", postID)
	return nil
}

// apply normalizes hashtags and media, validates the caption and moves the
// post between draft and scheduled when the schedule changes.
func (s *PostService) apply(ctx context.Context, post *models.Post, hashtags, mediaIDs []string, scheduleSet bool, scheduledAt *time.Time) error {
	verr := &models.ValidationError{}

	normalized, err := textedit.NormalizeHashtags(hashtags)
	if err != nil {
		verr.Add("hashtags", err.Error())
	}
	post.Hashtags = textedit.MergeHashtags(normalized, textedit.ExtractHashtags(post.Caption))
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}

	switch err := textedit.Validate(post.Caption, post.Hashtags); {
	case errors.Is(err, textedit.ErrCaptionTooLong):
		verr.Add("caption", err.Error())
	case errors.Is(err, textedit.ErrTooManyHashtags):
		verr.Add("hashtags", err.Error())
	case err != nil:
		verr.Add("caption", err.Error())
	}

	post.MediaIDs = dedupe(mediaIDs)
	if len(post.MediaIDs) > 0 {
		n, err := s.store.CountMedia(ctx, post.ShopID, post.MediaIDs)
		if err != nil {
			return err
		}
		if n != len(post.MediaIDs) {
			verr.Add("media_ids", "unknown media id")
		}
	}

	if scheduleSet {
		switch {
		case scheduledAt == nil:
			post.ScheduledAt = 0
			post.Status = models.PostDraft
		case !scheduledAt.After(s.now()):
			verr.Add("scheduled_at", "scheduled_at must be in the future")
		default:
			post.ScheduledAt = scheduledAt.Unix()
			post.Status = models.PostScheduled
			post.FailureReason = ""
		}
	}

	return verr.OrNil()
}

// GenerateCaption asks the AI generator for a caption in the given tone and
// consumes one AI generation. The result is returned, not stored.
func (s *PostService) GenerateCaption(ctx context.Context, shopID, prompt, tone string) (*CaptionDraft, error) {
	slog.Info("GenerateCaption request received", "shop_id", shopID, "tone", tone)

	prompt = strings.TrimSpace(prompt)
	verr := &models.ValidationError{}
	switch n := utf8.RuneCountInString(prompt); {
	case n == 0:
		verr.Add("prompt", "prompt is required")
	case n > MaxCaptionPromptLength:
		verr.Add("prompt", "prompt must be at most 500 characters")
	}
	t, err := ai.ParseTone(tone)
	if err != nil {
		verr.Add("tone", err.Error())
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var result *ai.CaptionResult
	err = s.subscriptions.Generate(ctx, shopID, ai.TaskCaption, func() error {
		var genErr error
		result, genErr = s.generator.Caption(ctx, ai.CaptionPrompt{
			ShopName:  shop.Name,
			Category:  string(shop.Category),
			Prompt:    prompt,
			Tone:      t,
			StyleTags: shop.StyleTags,
		})
		return genErr
	})
	if err != nil {
		logFailure("GenerateCaption failed", err, "shop_id", shopID)
		return nil, err
	}

	// Provider hashtags are suggestions; unusable ones are dropped.
	var suggested []string
	for _, raw := range result.Hashtags {
		if tag, err := textedit.NormalizeHashtag(raw); err == nil {
			suggested = append(suggested, tag)
		}
	}
	caption := truncateRunes(fitTone(strings.TrimSpace(result.Caption), t), textedit.MaxCaptionLength)
	hashtags := textedit.MergeHashtags(textedit.ExtractHashtags(caption), suggested)
	if len(hashtags) > textedit.MaxHashtags {
		hashtags = hashtags[:textedit.MaxHashtags]
	}
	if hashtags == nil {
		hashtags = []string{}
	}
	// Suggested tags go into the caption too, unless that breaks the limit.
	if withTags := textedit.AddHashtags(caption, hashtags); utf8.RuneCountInString(withTags) <= textedit.MaxCaptionLength {
		caption = withTags
	}

	slog.Info("Caption generated", "shop_id", shopID, "hashtags", len(hashtags))
	return &CaptionDraft{Caption: caption, Hashtags: hashtags, GeneratedAt: s.now()}, nil
}

// removeDroppedTags deletes from caption the tags of before that are not in
// after. Caption tags are merged into the hashtag list, so a tag removed from
// the list alone would come back.
func removeDroppedTags(caption string, before, after []string) string {
	kept := make(map[string]bool, len(after))
	for _, raw := range after {
		if tag, err := textedit.NormalizeHashtag(raw); err == nil {
			kept[strings.ToLower(tag)] = true
		}
	}
	for _, tag := range before {
		if !kept[strings.ToLower(tag)] {
			caption = textedit.RemoveHashtag(caption, tag)
		}
	}
	return caption
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
