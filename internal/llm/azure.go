package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"

	"contrackt-ai/internal/observability"
)

const providerAzure = "azure"

// AzureConfig names the Azure OpenAI resource and its deployments.
type AzureConfig struct {
	Endpoint            string
	APIKey              string
	APIVersion          string
	ChatDeployment      string
	EmbeddingDeployment string
	ExpectedSize        int
}

// AzureClient implements Completer and Embedder against Azure OpenAI deployments.
type AzureClient struct {
	client       *openai.Client
	chat         string
	embedding    string
	expectedSize int
	retry        []retry.Option
}

// NewAzureClient builds a client from cfg. Model names are passed through as deployment names.
func NewAzureClient(cfg AzureConfig, retryOpts ...retry.Option) (*AzureClient, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("azure openai endpoint and api key are required")
	}
	oc := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		oc.APIVersion = cfg.APIVersion
	}
	oc.AzureModelMapperFunc = func(model string) string { return model }

	if len(retryOpts) == 0 {
		retryOpts = []retry.Option{retry.Attempts(3)}
	}
	return &AzureClient{
		client:       openai.NewClientWithConfig(oc),
		chat:         cfg.ChatDeployment,
		embedding:    cfg.EmbeddingDeployment,
		expectedSize: cfg.ExpectedSize,
		retry:        retryOpts,
	}, nil
}

// Complete runs one chat completion on the chat deployment.
func (c *AzureClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := observability.StartLLMSpan(ctx, providerAzure, c.chat, "complete")
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.chat,
		Messages:    messages,
		Temperature: wireTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	reply, err := withRetry(ctx, c.retry, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return "", wrapOpenAIError("chat", err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return "", err
	}
	return reply, nil
}

// Embed returns the embedding of text on the embedding deployment.
func (c *AzureClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := observability.StartLLMSpan(ctx, providerAzure, c.embedding, "embed")
	defer span.End()

	input := TruncateForEmbedding(text)
	vec, err := withRetry(ctx, c.retry, func() ([]float32, error) {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{input},
			Model: openai.EmbeddingModel(c.embedding),
		})
		if err != nil {
			return nil, wrapOpenAIError("embed", err)
		}
		if len(resp.Data) == 0 {
			return nil, retry.Unrecoverable(&ProviderError{Provider: providerAzure, Op: "embed", Err: errors.New("no embeddings returned")})
		}
		return resp.Data[0].Embedding, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if c.expectedSize > 0 && len(vec) != c.expectedSize {
		err := &ProviderError{Provider: providerAzure, Op: "embed", Err: fmt.Errorf("embedding has size %d, expected %d", len(vec), c.expectedSize)}
		observability.RecordError(span, err)
		return nil, err
	}
	return vec, nil
}

// wireTemperature keeps a requested zero temperature on the wire.
// The openai request type drops a zero float through omitempty.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func wrapOpenAIError(op string, err error) error {
	pe := &ProviderError{Provider: providerAzure, Op: op, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	if pe.StatusCode == http.StatusOK {
		pe.StatusCode = 0
	}
	return pe
}
