package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chronicle-ai/chronicle/pkg/ai"
)

const NAME = "openai"

type ModelName struct {
	ChatModel      string
	EmbeddingModel string
}

// Driver speaks the OpenAI-compatible API: embeddings and full chat
// completions through the client library, streaming completions over a
// raw SSE connection so that frames the library would drop can still be
// forwarded to the caller.
type Driver struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	token      string
	model      ModelName
}

func New(token, baseURL string, model ModelName) *Driver {
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model.ChatModel == "" {
		model.ChatModel = openai.GPT4oMini
	}
	if model.EmbeddingModel == "" {
		model.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	return &Driver{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      token,
		model:      model,
	}
}

func (s *Driver) ChatModel() string {
	return s.model.ChatModel
}

func (s *Driver) Embedding(ctx context.Context, input []string) ([][]float32, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.Int("inputs", len(input)))
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.model.EmbeddingModel),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding API returned empty data")
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("embedding API returned mismatched count, got %d want %d", len(resp.Data), len(input))
	}

	return lo.Map(resp.Data, func(item openai.Embedding, _ int) []float32 {
		return item.Embedding
	}), nil
}

func (s *Driver) Completion(ctx context.Context, messages []ai.Message, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model.ChatModel,
		Temperature: temperature,
		Messages: lo.Map(messages, func(item ai.Message, _ int) openai.ChatCompletionMessage {
			return openai.ChatCompletionMessage{
				Role:    item.Role,
				Content: item.Content,
			}
		}),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("Completion error: empty choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// CompletionStream issues a streaming chat request and forwards content
// deltas as they arrive. Frames that fail JSON parsing are forwarded raw
// rather than dropped; the [DONE] sentinel ends the stream.
func (s *Driver) CompletionStream(ctx context.Context, messages []ai.Message, temperature float32) (<-chan string, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.model.ChatModel,
		Temperature: temperature,
		Stream:      true,
		Messages: lo.Map(messages, func(item ai.Message, _ int) openai.ChatCompletionMessage {
			return openai.ChatCompletionMessage{
				Role:    item.Role,
				Content: item.Content,
			}
		}),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request, %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Completion stream error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("Completion stream error: status %d, %s", resp.StatusCode, buf.String())
	}

	fragments := make(chan string, 64)
	go func() {
		defer close(fragments)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			content, done, emit := ParseStreamFrame(scanner.Text())
			if done {
				return
			}
			if !emit {
				continue
			}
			select {
			case fragments <- content:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("chat stream read failed", slog.String("driver", NAME), slog.String("error", err.Error()))
		}
	}()

	return fragments, nil
}

// ParseStreamFrame interprets one server-sent line. It strips the data:
// prefix, recognizes the [DONE] sentinel, extracts the delta content from
// a JSON frame, and falls back to the raw payload when the frame is not
// JSON so no token is ever lost.
func ParseStreamFrame(line string) (content string, done bool, emit bool) {
	payload := strings.TrimSpace(line)
	if payload == "" {
		return "", false, false
	}
	payload = strings.TrimSpace(strings.TrimPrefix(payload, "data:"))
	if payload == "" {
		return "", false, false
	}
	if payload == "[DONE]" {
		return "", true, false
	}

	var frame openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return payload, false, true
	}
	if len(frame.Choices) == 0 {
		return "", false, false
	}
	delta := frame.Choices[0].Delta.Content
	if delta == "" {
		return "", false, false
	}
	return delta, false, true
}
