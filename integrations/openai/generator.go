package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainAI "github.com/AzielCF/az-post/domains/ai"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"de": "German",
	"pt": "Portuguese",
	"nl": "Dutch",
}

// Generator produces post text, image prompts and images through the OpenAI
// API. It implements domains/ai.IContentGenerator.
type Generator struct {
	client     openai.Client
	chatModel  string
	imageModel string
}

func NewGenerator(apiKey, chatModel, imageModel string) *Generator {
	return &Generator{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:  chatModel,
		imageModel: imageModel,
	}
}

// GeneratePost expands a topic into a ready-to-publish post. The response is
// constrained to a JSON schema so text and hashtags come back separated.
func (g *Generator) GeneratePost(ctx context.Context, topic, language string) (domainAI.PostDraft, error) {
	languageName, ok := languageNames[language]
	if !ok {
		languageName = "English"
	}

	prompt := fmt.Sprintf(`You are a professional LinkedIn content writer. Generate a highly engaging LinkedIn post about "%s".

Requirements:
- Length between 150 and 300 words
- Strong hook in the first line
- Add value with insights, tips, or thought-provoking questions
- End with a call-to-action or question to encourage engagement
- Professional but conversational tone, natural and authentic
- Write the entire post in %s only
- Return 3 to 5 relevant hashtags separately, each starting with #`, topic, languageName)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":     map[string]any{"type": "string"},
			"hashtags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []string{"text", "hashtags"},
		"additionalProperties": false,
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "linkedin_post",
					Schema: any(schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domainAI.PostDraft{}, err
	}
	if len(completion.Choices) == 0 {
		return domainAI.PostDraft{}, fmt.Errorf("no response from openai")
	}

	var result struct {
		Text     string   `json:"text"`
		Hashtags []string `json:"hashtags"`
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &result); err != nil {
		return domainAI.PostDraft{}, fmt.Errorf("failed to parse generated post: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return domainAI.PostDraft{}, fmt.Errorf("generated post is empty")
	}

	return domainAI.PostDraft{Text: result.Text, Hashtags: result.Hashtags}, nil
}

// GenerateImagePrompt turns finalized post text into an image description.
// The date context keeps repeated runs from converging on the same visual.
func (g *Generator) GenerateImagePrompt(ctx context.Context, content string) (string, error) {
	prompt := fmt.Sprintf(`Create a unique, detailed, professional image description for a LinkedIn post with the following content:

%s

Requirements:
- Professional and suitable for a LinkedIn business audience
- Clean, modern design, visually striking, directly relevant to the post
- High contrast and clear composition for social media
- Avoid cluttered designs and avoid any text inside the image
- Current date context: %s

Return only the image description, nothing else.`, content, time.Now().Format("January 2006"))

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// GenerateImage renders the prompt and returns a hosted URL. An empty URL
// with a nil error means the caller should post without an image.
func (g *Generator) GenerateImage(ctx context.Context, prompt, topicContext string) (string, error) {
	if strings.TrimSpace(prompt) == "" && topicContext != "" {
		prompt = fmt.Sprintf("Professional LinkedIn illustration about: %s", topicContext)
	}

	image, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModel(g.imageModel),
		Prompt: prompt,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return "", err
	}
	if len(image.Data) == 0 || image.Data[0].URL == "" {
		logrus.Warn("[OPENAI] Image generation returned no URL")
		return "", nil
	}

	return image.Data[0].URL, nil
}
