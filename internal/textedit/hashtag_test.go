package textedit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed scripts and duplicates",
			text: "Fresh #Balayage look! #헤어 #balayage #nail_art.",
			want: []string{"#Balayage", "#헤어", "#nail_art"},
		},
		{
			name: "hash glued to a word is not a tag",
			text: "mail me at salon#1 or #booking",
			want: []string{"#booking"},
		},
		{
			name: "double hash",
			text: "##double",
			want: []string{"#double"},
		},
		{
			name: "no tags",
			text: "just a caption # with a lonely hash",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHashtags(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractHashtags(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeHashtag(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "hair color", want: "#haircolor"},
		{raw: "##balayage", want: "#balayage"},
		{raw: " #헤어스타일 ", want: "#헤어스타일"},
		{raw: "   ", wantErr: true},
		{raw: "#", wantErr: true},
		{raw: "hair-color", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeHashtag(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHashtag) {
					t.Fatalf("expected ErrInvalidHashtag, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeHashtag(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeHashtagsDedupes(t *testing.T) {
	got, err := NormalizeHashtags([]string{"Perm", "#perm", "color"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"#Perm", "#color"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddHashtags(t *testing.T) {
	got := AddHashtags("New look  ", []string{"#hair", "#new"})
	if got != "New look\n\n#hair #new" {
		t.Errorf("unexpected caption: %q", got)
	}

	unchanged := AddHashtags("Hi #hair", []string{"#Hair"})
	if unchanged != "Hi #hair" {
		t.Errorf("expected caption unchanged, got %q", unchanged)
	}

	if got := AddHashtags("", []string{"#a", "#a"}); got != "#a" {
		t.Errorf("empty caption: got %q", got)
	}
}

func TestRemoveHashtag(t *testing.T) {
	tests := []struct {
		caption string
		tag     string
		want    string
	}{
		{caption: "Hi #hair #nail", tag: "hair", want: "Hi #nail"},
		{caption: "#hair cut", tag: "#HAIR", want: "cut"},
		{caption: "Done #nail", tag: "#nail", want: "Done"},
		{caption: "Keep #hairstyle", tag: "#hair", want: "Keep #hairstyle"},
		{caption: "bad tag", tag: "-", want: "bad tag"},
	}

	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if got := RemoveHashtag(tt.caption, tt.tag); got != tt.want {
				t.Errorf("RemoveHashtag(%q, %q) = %q, want %q", tt.caption, tt.tag, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("short #ok", []string{"#ok"}); err != nil {
		t.Errorf("expected valid caption, got %v", err)
	}

	long := strings.Repeat("가", MaxCaptionLength+1)
	if err := Validate(long, nil); !errors.Is(err, ErrCaptionTooLong) {
		t.Errorf("expected ErrCaptionTooLong, got %v", err)
	}

	exact := strings.Repeat("가", MaxCaptionLength)
	if err := Validate(exact, nil); err != nil {
		t.Errorf("caption at the limit should be valid, got %v", err)
	}

	tags := make([]string, MaxHashtags+1)
	for i := range tags {
		tags[i] = fmt.Sprintf("#tag%d", i)
	}
	if err := Validate("", tags); !errors.Is(err, ErrTooManyHashtags) {
		t.Errorf("expected ErrTooManyHashtags, got %v", err)
	}

	// Tags repeated between caption and list count once.
	if err := Validate(strings.Join(tags[:MaxHashtags], " "), tags[:MaxHashtags]); err != nil {
		t.Errorf("duplicates should count once, got %v", err)
	}
}
