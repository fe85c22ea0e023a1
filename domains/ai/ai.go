package ai

import "context"

// PostDraft is what the content generator produces from a topic.
type PostDraft struct {
	Text     string   `json:"text"`
	Hashtags []string `json:"hashtags"`
}

// IContentGenerator expands topics into publishable text and produces images
// for posts. GenerateImage returning an empty URL with a nil error means
// "proceed without an image", not a hard failure.
type IContentGenerator interface {
	GeneratePost(ctx context.Context, topic, language string) (PostDraft, error)
	GenerateImagePrompt(ctx context.Context, content string) (string, error)
	GenerateImage(ctx context.Context, prompt, topicContext string) (string, error)
}
