package v1

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/pkg/ai"
	"github.com/chronicle-ai/chronicle/pkg/cache"
	"github.com/chronicle-ai/chronicle/pkg/errors"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

const NO_MATCH_ANSWER = "I could not find relevant information in the knowledge base."

type QueryLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewQueryLogic(ctx context.Context, core *core.Core) *QueryLogic {
	return &QueryLogic{
		ctx:  ctx,
		core: core,
	}
}

type QueryRequest struct {
	Query         string `json:"query" binding:"required"`
	Category      string `json:"category"`
	DocumentTitle string `json:"document_title"`
	TopK          int    `json:"top_k" binding:"omitempty,min=1,max=20"`
}

func (r QueryRequest) ResolvedTopK() int {
	if r.TopK <= 0 {
		return 5
	}
	if r.TopK > 20 {
		return 20
	}
	return r.TopK
}

type QueryResponseSource struct {
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
}

type QueryResponse struct {
	Answer  string                `json:"answer"`
	Sources []QueryResponseSource `json:"sources"`
}

// Answer resolves a question, preferring the structured knowledge-graph
// path when the router accepts the intent, falling back to retrieval
// over embedded chunks.
func (l *QueryLogic) Answer(req QueryRequest) (*QueryResponse, error) {
	if kgResponse, err := l.tryKnowledgeGraph(req); err != nil {
		return nil, err
	} else if kgResponse != nil {
		slog.Info("query routed to knowledge graph path", slog.String("category", req.Category))
		return kgResponse, nil
	}

	matches, err := l.searchSimilar(req)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &QueryResponse{Answer: NO_MATCH_ANSWER, Sources: []QueryResponseSource{}}, nil
	}

	answer, err := l.core.AI().Completion(l.ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: ai.PROMPT_GROUNDED_SYSTEM},
		{Role: ai.ROLE_USER, Content: buildRetrievalPrompt(req.Query, matches)},
	}, 0.2)
	if err != nil {
		return nil, errors.New("QueryLogic.Answer.Completion", "chat completion failed", err)
	}

	return &QueryResponse{
		Answer:  answer,
		Sources: sourcesOf(matches),
	}, nil
}

// AnswerStream is Answer with a token channel instead of a single
// string. KG answers and the no-match message arrive as one element.
func (l *QueryLogic) AnswerStream(req QueryRequest) (<-chan string, error) {
	if kgResponse, err := l.tryKnowledgeGraph(req); err != nil {
		return nil, err
	} else if kgResponse != nil {
		return singleFrame(kgResponse.Answer), nil
	}

	matches, err := l.searchSimilar(req)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return singleFrame(NO_MATCH_ANSWER), nil
	}

	stream, err := l.core.AI().CompletionStream(l.ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: ai.PROMPT_GROUNDED_SYSTEM},
		{Role: ai.ROLE_USER, Content: buildRetrievalPrompt(req.Query, matches)},
	}, 0.2)
	if err != nil {
		return nil, errors.New("QueryLogic.AnswerStream.CompletionStream", "chat completion failed", err)
	}
	return stream, nil
}

// tryKnowledgeGraph returns nil without error when the question has no
// structured route, including when the routed subject is unknown to the
// graph; the caller then falls back to vector retrieval.
func (l *QueryLogic) tryKnowledgeGraph(req QueryRequest) (*QueryResponse, error) {
	route, ok := l.core.Router().Route(l.ctx, req.Query)
	if !ok {
		return nil, nil
	}

	graph := NewGraphQueryLogic(l.ctx, l.core)

	var (
		documentID *string
		scopeLabel = "across all documents"
	)
	if title := strings.TrimSpace(req.DocumentTitle); title != "" {
		doc, err := graph.FindDocumentByTitle(title)
		if err != nil {
			return nil, errors.New("QueryLogic.tryKnowledgeGraph.FindDocumentByTitle", "internal error", err)
		}
		if doc != nil {
			documentID = &doc.ID
			scopeLabel = fmt.Sprintf("within %q", doc.Title)
		}
	}

	answer, err := graph.CountRelations(route.Subject, route.Predicate, documentID)
	if err != nil {
		return nil, errors.New("QueryLogic.tryKnowledgeGraph.CountRelations", "internal error", err)
	}
	if answer == nil {
		return nil, nil
	}

	llmAnswer, err := l.core.AI().Completion(l.ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: ai.PROMPT_GROUNDED_SYSTEM},
		{Role: ai.ROLE_USER, Content: buildKgPrompt(answer, route.Predicate, scopeLabel)},
	}, 0.2)
	if err != nil {
		return nil, errors.New("QueryLogic.tryKnowledgeGraph.Completion", "chat completion failed", err)
	}

	return &QueryResponse{Answer: llmAnswer, Sources: []QueryResponseSource{}}, nil
}

func (l *QueryLogic) searchSimilar(req QueryRequest) ([]types.ChunkSearchResult, error) {
	vector, err := l.core.Embedder().Embed(l.ctx, req.Query)
	if err != nil {
		return nil, errors.New("QueryLogic.searchSimilar.Embed", "embedding failed", err)
	}

	topK := req.ResolvedTopK()
	var key string
	if c := l.core.SearchCache(); c != nil {
		key = cache.Fingerprint(vector, topK, req.Category)
		if hit, ok := c.Get(key); ok {
			l.core.Metrics().CacheResultInc("hit")
			return hit, nil
		}
		l.core.Metrics().CacheResultInc("miss")
	}

	timer := l.core.Metrics().SearchTimer()
	matches, err := l.core.Store().ChunkStore().Search(l.ctx, pgvector.NewVector(vector), topK, req.Category)
	timer.ObserveDuration()
	if err != nil {
		return nil, errors.New("QueryLogic.searchSimilar.Search", "internal error", err)
	}

	if c := l.core.SearchCache(); c != nil {
		c.Set(key, matches)
	}
	return matches, nil
}

func buildRetrievalPrompt(question string, matches []types.ChunkSearchResult) string {
	var sb strings.Builder
	sb.WriteString("Use ONLY the following retrieved information to answer the user's question.\n\n")
	for _, match := range matches {
		fmt.Fprintf(&sb, "[chunk %d] %s\n\n", match.ChunkIndex, match.Content)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer in a concise paragraph and cite the supporting chunk index in brackets, e.g., [chunk 0].")
	return sb.String()
}

func buildKgPrompt(answer *KgCountAnswer, predicate, scopeLabel string) string {
	return fmt.Sprintf("You are given a structured fact from a knowledge graph.\n"+
		"Character: %s\n"+
		"Count of %q facts %s: %d\n"+
		"Explain this to the user in natural language and note that it is based on structured graph data, not long text scanning.",
		answer.CharacterName, predicate, scopeLabel, answer.Count)
}

func sourcesOf(matches []types.ChunkSearchResult) []QueryResponseSource {
	return lo.Map(matches, func(match types.ChunkSearchResult, _ int) QueryResponseSource {
		return QueryResponseSource{
			ChunkIndex: match.ChunkIndex,
			Similarity: match.Similarity,
		}
	})
}

func singleFrame(answer string) <-chan string {
	out := make(chan string, 1)
	out <- answer
	close(out)
	return out
}
