package kg

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/chronicle-ai/chronicle/pkg/ai"
)

// minConfidence gates structured routing; anything below falls back to
// vector search.
const minConfidence = 0.4

const INTENT_RELATION_COUNT = "relation_count"

type intentPayload struct {
	Intent     string  `json:"intent"`
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// Route is an accepted structured-query intent.
type Route struct {
	Subject    string
	Predicate  string
	Confidence float64
}

// Router classifies free-text questions into structured-query intents.
// Any network or parse failure reports "no structured route"; it never
// raises, so callers always have the vector-search fallback.
type Router struct {
	chat       ai.ChatDriver
	predicates map[string][]string
}

func NewRouter(chat ai.ChatDriver, predicates map[string][]string) *Router {
	return &Router{chat: chat, predicates: predicates}
}

func (r *Router) Route(ctx context.Context, question string) (Route, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Route{}, false
	}

	content, err := r.chat.Completion(ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: ai.PROMPT_INTENT_SYSTEM},
		{Role: ai.ROLE_USER, Content: question},
	}, 0)
	if err != nil {
		slog.Warn("intent classification failed", slog.String("error", err.Error()))
		return Route{}, false
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		slog.Warn("intent response was not valid JSON", slog.String("snippet", snippet(content)))
		return Route{}, false
	}

	if payload.Confidence < minConfidence {
		return Route{}, false
	}
	if strings.ToLower(payload.Intent) != INTENT_RELATION_COUNT {
		return Route{}, false
	}

	subject := strings.TrimSpace(payload.Subject)
	predicate := r.choosePredicate(strings.TrimSpace(payload.Predicate), strings.TrimSpace(payload.Object))
	if subject == "" || predicate == "" {
		return Route{}, false
	}

	return Route{
		Subject:    subject,
		Predicate:  predicate,
		Confidence: payload.Confidence,
	}, true
}

// choosePredicate picks, in order: the explicit predicate field, the first
// synonym-table key whose synonyms appear in the object phrase, then the
// lowercased object phrase itself.
func (r *Router) choosePredicate(predicate, object string) string {
	if predicate != "" {
		return strings.ToLower(predicate)
	}
	object = strings.ToLower(object)
	if object == "" {
		return ""
	}
	if key, ok := MatchPredicateKey(r.predicates, object); ok {
		return key
	}
	return object
}

// MatchPredicateKey finds the first table key (in sorted order, for
// determinism) with a synonym contained in the phrase.
func MatchPredicateKey(table map[string][]string, phrase string) (string, bool) {
	phrase = strings.ToLower(phrase)
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, synonym := range table[key] {
			if synonym != "" && strings.Contains(phrase, strings.ToLower(synonym)) {
				return key, true
			}
		}
	}
	return "", false
}

// PredicateSynonyms expands a phrase into the set of predicates to match
// in the relation table. When a table entry's synonyms contain the phrase
// as a substring, its whole synonym list (plus the key) is returned;
// otherwise the cleaned phrase stands alone.
func PredicateSynonyms(table map[string][]string, phrase string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(phrase))
	if cleaned == "" {
		return nil
	}
	if key, ok := MatchPredicateKey(table, cleaned); ok {
		set := []string{key}
		for _, synonym := range table[key] {
			s := strings.ToLower(synonym)
			if s != key {
				set = append(set, s)
			}
		}
		return set
	}
	return []string{cleaned}
}
