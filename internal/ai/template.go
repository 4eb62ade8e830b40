package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/textedit"
)

// maxTagMentions bounds how many style tags a template reply names.
const maxTagMentions = 2

// TemplateGenerator writes deterministic replies from fixed phrases. It never
// fails and needs no network access.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template-based generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// ReviewResponse builds a reply from the tone, the rating and up to two
// style tags.
func (g *TemplateGenerator) ReviewResponse(_ context.Context, p ReviewPrompt) (string, error) {
	casual, polite := "고객님", "고객님"
	if name := strings.TrimSpace(p.AuthorName); name != "" {
		casual, polite = name+"님", name+" 고객님"
	}

	var b strings.Builder
	switch p.Tone {
	case ToneFormal:
		b.WriteString(polite + ", 소중한 시간을 내어 후기를 남겨 주셔서 진심으로 감사드립니다.")
	case ToneApologetic:
		b.WriteString(polite + ", 이용에 불편을 드려 진심으로 죄송합니다.")
	default:
		b.WriteString(casual + ", 소중한 후기 감사합니다!")
	}
	greeting := utf8.RuneCountInString(b.String())

	b.WriteString(" ")
	switch {
	case p.Rating >= 4:
		shop := strings.TrimSpace(p.ShopName)
		if shop == "" {
			shop = "저희 매장"
		}
		b.WriteString(shop + "에서 만족스러운 시간을 보내셨다니 정말 기쁩니다.")
	case p.Rating == 3:
		b.WriteString("말씀해 주신 부분은 더 나아질 수 있도록 꼭 참고하겠습니다.")
	default:
		b.WriteString("남겨 주신 의견을 바탕으로 서비스를 개선하겠습니다.")
	}

	if tags := mentionTags(p.StyleTags); tags != "" {
		b.WriteString(" 다음에도 " + tags + " 스타일로 만족을 드리겠습니다.")
	}

	friendly := p.Tone == ToneFriendly || p.Tone == ""
	if friendly {
		b.WriteString(" 또 만나요!")
	} else {
		b.WriteString(" 다시 뵐 수 있기를 바랍니다.")
	}

	reply := b.String()
	if friendly && p.Rating >= 4 {
		reply = textedit.InsertEmoji(reply, " 😊", greeting)
	}
	return reply, nil
}

// Caption expands the prompt into a caption and suggests hashtags from the
// shop name, its category and its style tags.
func (g *TemplateGenerator) Caption(_ context.Context, p CaptionPrompt) (*CaptionResult, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Prompt))
	if shop := strings.TrimSpace(p.ShopName); shop != "" {
		b.WriteString("\n\n" + shop + "에서 만나요")
		if p.Tone == ToneFriendly || p.Tone == "" {
			b.WriteString(" ✨")
		}
	}

	candidates := append([]string{p.ShopName, p.Category}, p.StyleTags...)

	var hashtags []string
	for _, c := range candidates {
		tag, err := textedit.NormalizeHashtag(c)
		if err != nil {
			continue
		}
		hashtags = append(hashtags, tag)
	}

	return &CaptionResult{
		Caption:  strings.TrimSpace(b.String()),
		Hashtags: textedit.MergeHashtags(hashtags),
	}, nil
}

func mentionTags(tags []string) string {
	var picked []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			picked = append(picked, t)
		}
		if len(picked) == maxTagMentions {
			break
		}
	}
	return strings.Join(picked, ", ")
}
