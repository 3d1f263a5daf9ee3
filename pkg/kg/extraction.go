package kg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chronicle-ai/chronicle/pkg/ai"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

type ExtractedEntity struct {
	Name         string   `json:"name"`
	CanonicalKey string   `json:"canonicalKey"`
	EntityType   string   `json:"entityType"`
	Description  string   `json:"description"`
	Aliases      []string `json:"aliases"`
}

type ExtractedEvent struct {
	EventType     string `json:"eventType"`
	EventCategory string `json:"eventCategory"`
	Name          string `json:"name"`
	Chapter       string `json:"chapter"`
	Location      string `json:"location"`
	StartYear     *int   `json:"startYear"`
	EndYear       *int   `json:"endYear"`
}

type ExtractedParticipant struct {
	EventName  string `json:"eventName"`
	ActorName  string `json:"actorName"`
	Role       string `json:"role"`
	Outcome    string `json:"outcome"`
	ChunkIndex *int   `json:"chunkIndex"`
}

type ExtractedRelation struct {
	SubjectName string `json:"subjectName"`
	Predicate   string `json:"predicate"`
	ObjectName  string `json:"objectName"`
	ObjectText  string `json:"objectText"`
	ChunkIndex  *int   `json:"chunkIndex"`
}

// Extraction is what the model produced for one document. A failed parse
// degrades to the zero value ("no facts found") rather than an error, so
// malformed model output never fails a document.
type Extraction struct {
	Entities     []ExtractedEntity      `json:"entities"`
	Events       []ExtractedEvent       `json:"events"`
	Participants []ExtractedParticipant `json:"participants"`
	Relations    []ExtractedRelation    `json:"relations"`
}

func (e Extraction) Empty() bool {
	return len(e.Entities) == 0 && len(e.Events) == 0 && len(e.Participants) == 0 && len(e.Relations) == 0
}

// tokenWarnLimit is the prompt size beyond which we log; the request is
// still sent and left to the API to reject.
const tokenWarnLimit = 100000

// Extractor turns a document's chunks into graph facts via the chat API.
type Extractor struct {
	chat  ai.ChatDriver
	model string
}

func NewExtractor(chat ai.ChatDriver, model string) *Extractor {
	return &Extractor{chat: chat, model: model}
}

func (s *Extractor) Extract(ctx context.Context, chunks []types.Chunk) Extraction {
	if len(chunks) == 0 {
		return Extraction{}
	}
	slog.Info("starting KG extraction", slog.Int("chunks", len(chunks)))

	prompt := BuildExtractionPrompt(chunks)
	if n, err := ai.NumTokens(prompt, s.model); err == nil && n > tokenWarnLimit {
		slog.Warn("extraction prompt exceeds token budget", slog.Int("tokens", n), slog.String("model", s.model))
	}

	content, err := s.chat.Completion(ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: ai.PROMPT_EXTRACT_SYSTEM},
		{Role: ai.ROLE_USER, Content: prompt},
	}, 1.0)
	if err != nil {
		slog.Error("KG extraction request failed", slog.String("error", err.Error()))
		return Extraction{}
	}
	if strings.TrimSpace(content) == "" {
		slog.Warn("KG extraction returned blank content")
		return Extraction{}
	}

	result := ParseExtraction(content)
	slog.Info("KG extraction parsed",
		slog.Int("entities", len(result.Entities)),
		slog.Int("events", len(result.Events)),
		slog.Int("participants", len(result.Participants)),
		slog.Int("relations", len(result.Relations)))
	return result
}

func BuildExtractionPrompt(chunks []types.Chunk) string {
	var sb strings.Builder
	sb.WriteString(ai.PROMPT_EXTRACT_USER)
	for _, c := range chunks {
		fmt.Fprintf(&sb, "[chunk %d] %s\n\n", c.ChunkIndex, c.Content)
	}
	return sb.String()
}

// ParseExtraction decodes the model's message content. On failure it
// retries on the slice between the first '{' and the last '}', then gives
// up and returns an empty extraction.
func ParseExtraction(content string) Extraction {
	var result Extraction
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result
	}

	slog.Warn("primary extraction parse failed, attempting JSON repair", slog.String("snippet", snippet(content)))
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		slog.Error("extraction content could not be parsed as JSON")
		return Extraction{}
	}

	result = Extraction{}
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		slog.Error("extraction repair parse failed", slog.String("error", err.Error()))
		return Extraction{}
	}
	return result
}

func snippet(text string) string {
	if len(text) > 500 {
		return text[:500] + "..."
	}
	return text
}
