// Package ai produces review replies and post captions. The language model
// itself is an external provider reached through HTTPGenerator;
// TemplateGenerator covers deployments without one.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Tone is the voice of a generated text.
type Tone string

const (
	ToneFriendly   Tone = "friendly"
	ToneFormal     Tone = "formal"
	ToneApologetic Tone = "apologetic"
)

// DefaultTone is used when the client does not ask for one.
const DefaultTone = ToneFriendly

var ErrInvalidTone = fmt.Errorf("tone must be one of %s, %s, %s", ToneFriendly, ToneFormal, ToneApologetic)

// ErrEmptyGeneration is returned when the provider answered without text.
var ErrEmptyGeneration = errors.New("generator returned empty text")

// ParseTone validates a tone name. Empty selects DefaultTone.
func ParseTone(s string) (Tone, error) {
	switch t := Tone(s); t {
	case "":
		return DefaultTone, nil
	case ToneFriendly, ToneFormal, ToneApologetic:
		return t, nil
	}
	return "", ErrInvalidTone
}

// ReviewPrompt describes the review to answer.
type ReviewPrompt struct {
	ShopName   string   `json:"shop_name"`
	Category   string   `json:"category"`
	Platform   string   `json:"platform"`
	AuthorName string   `json:"author_name"`
	Rating     int      `json:"rating"`
	Content    string   `json:"content"`
	Tone       Tone     `json:"tone"`
	StyleTags  []string `json:"style_tags"`
}

// CaptionPrompt describes the Instagram post to write.
type CaptionPrompt struct {
	ShopName  string   `json:"shop_name"`
	Category  string   `json:"category"`
	Prompt    string   `json:"prompt"`
	Tone      Tone     `json:"tone"`
	StyleTags []string `json:"style_tags"`
}

// CaptionResult is a generated caption and its suggested hashtags. Hashtags
// are not normalized.
type CaptionResult struct {
	Caption  string
	Hashtags []string
}

// Generator writes texts on behalf of a shop.
type Generator interface {
	ReviewResponse(ctx context.Context, prompt ReviewPrompt) (string, error)
	Caption(ctx context.Context, prompt CaptionPrompt) (*CaptionResult, error)
}
