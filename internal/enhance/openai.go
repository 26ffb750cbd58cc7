package enhance

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "Kamu adalah penulis berita cuaca. Ubah ringkasan data cuaca berikut " +
	"menjadi narasi singkat berbahasa Indonesia yang mengalir natural, tanpa " +
	"menambah data yang tidak ada di ringkasan."

// OpenAIEnhancer polishes bulletin summaries into flowing narrative text
// through the OpenAI chat API. It is strictly a text transform: selection and
// weather data never depend on it.
type OpenAIEnhancer struct {
	api   *openai.Client
	model string
}

// NewOpenAI creates an enhancer. An empty model defaults to gpt-4o-mini.
func NewOpenAI(apiKey, model string) (*OpenAIEnhancer, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIEnhancer{
		api:   openai.NewClient(key),
		model: model,
	}, nil
}

// Enhance rewrites the plain summary as narrative text.
func (e *OpenAIEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	resp, err := e.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
