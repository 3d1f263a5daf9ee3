package v1

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/pkg/ai"
)

const CATEGORY_FALLBACK = "other"

type ClassifierLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewClassifierLogic(ctx context.Context, core *core.Core) *ClassifierLogic {
	return &ClassifierLogic{
		ctx:  ctx,
		core: core,
	}
}

// Classify asks the chat model to label the document with one of the
// configured categories. Any failure or out-of-list answer degrades to
// the fallback label; classification never blocks an upload.
func (l *ClassifierLogic) Classify(content string) string {
	labels := l.core.Cfg().Category.Labels
	if len(labels) == 0 {
		return CATEGORY_FALLBACK
	}

	sample := content
	if len(sample) > 2000 {
		sample = sample[:2000]
	}

	answer, err := l.core.AI().Completion(l.ctx, []ai.Message{
		{Role: ai.ROLE_SYSTEM, Content: fmt.Sprintf(ai.PROMPT_CLASSIFY_SYSTEM, strings.Join(labels, ", "))},
		{Role: ai.ROLE_USER, Content: sample},
	}, 0)
	if err != nil {
		slog.Warn("category classification failed", slog.String("error", err.Error()))
		return CATEGORY_FALLBACK
	}

	label := strings.ToLower(strings.TrimSpace(answer))
	matched, ok := lo.Find(labels, func(item string) bool {
		return strings.ToLower(item) == label
	})
	if !ok {
		return CATEGORY_FALLBACK
	}
	return matched
}
