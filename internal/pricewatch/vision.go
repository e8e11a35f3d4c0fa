package pricewatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoPrice means the model answered but no price could be read from the answer.
var ErrNoPrice = errors.New("no price in model answer")

// Vision reads a price for product off a page screenshot and returns the raw answer.
type Vision interface {
	ExtractPrice(ctx context.Context, img []byte, product string) (string, error)
}

type OpenAIVision struct {
	client *openai.Client
	model  string
}

func NewOpenAIVision(apiKey, model string) *OpenAIVision {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIVision{client: openai.NewClient(apiKey), model: model}
}

func (v *OpenAIVision) ExtractPrice(ctx context.Context, img []byte, product string) (string, error) {
	uri := "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     v.model,
		MaxTokens: 16,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: fmt.Sprintf("Extract the current price for %s. Return ONLY the number (e.g. 49.99).", product),
				},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: uri, Detail: openai.ImageURLDetailAuto},
				},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision: %w", ErrNoPrice)
	}
	return resp.Choices[0].Message.Content, nil
}

var priceRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)

// ParsePrice pulls the first number out of a model answer, dropping thousands
// separators: "$1,299.00" -> "1299.00".
func ParsePrice(answer string) (string, error) {
	m := priceRe.FindString(answer)
	if m == "" {
		return "", fmt.Errorf("%w: %q", ErrNoPrice, strings.TrimSpace(answer))
	}
	return strings.ReplaceAll(m, ",", ""), nil
}
