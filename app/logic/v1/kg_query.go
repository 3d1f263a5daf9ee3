package v1

import (
	"context"
	"database/sql"
	"strings"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/app/store"
	"github.com/chronicle-ai/chronicle/pkg/kg"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

const (
	OUTCOME_LOSS      = "loss"
	EVENT_TYPE_BATTLE = "battle"
)

type GraphQueryLogic struct {
	ctx    context.Context
	core   *core.Core
	reader *GraphReader
}

func NewGraphQueryLogic(ctx context.Context, core *core.Core) *GraphQueryLogic {
	return &GraphQueryLogic{
		ctx:  ctx,
		core: core,
		reader: NewGraphReader(
			core.Store().GraphEntityStore(),
			core.Store().EntityAliasStore(),
			core.Store().EventParticipantStore(),
			core.Store().RelationStore(),
			core.Cfg().Predicates,
		),
	}
}

// KgCountAnswer is a structured fact: how many matching facts the graph
// holds for one character.
type KgCountAnswer struct {
	CharacterName string  `json:"character_name"`
	Count         int64   `json:"count"`
	DocumentID    *string `json:"document_id"`
}

func (l *GraphQueryLogic) ResolveEntity(nameOrAlias string) (*types.GraphEntity, error) {
	return l.reader.ResolveEntity(l.ctx, nameOrAlias)
}

func (l *GraphQueryLogic) CountRelations(subjectName, objectPhrase string, documentID *string) (*KgCountAnswer, error) {
	return l.reader.CountRelations(l.ctx, subjectName, objectPhrase, documentID)
}

func (l *GraphQueryLogic) CountBattlesLost(nameOrAlias string, documentID *string) (*KgCountAnswer, error) {
	return l.reader.CountBattlesLost(l.ctx, nameOrAlias, documentID)
}

func (l *GraphQueryLogic) FindDocumentByTitle(title string) (*types.Document, error) {
	doc, err := l.core.Store().DocumentStore().GetByTitle(l.ctx, title)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return doc, nil
}

// GraphReader answers structured questions against the graph stores. It
// takes the store interfaces directly so resolution and counting are
// testable against fakes.
type GraphReader struct {
	entities     store.GraphEntityStore
	aliases      store.EntityAliasStore
	participants store.EventParticipantStore
	relations    store.RelationStore
	predicates   map[string][]string
}

func NewGraphReader(
	entities store.GraphEntityStore,
	aliases store.EntityAliasStore,
	participants store.EventParticipantStore,
	relations store.RelationStore,
	predicates map[string][]string,
) *GraphReader {
	return &GraphReader{
		entities:     entities,
		aliases:      aliases,
		participants: participants,
		relations:    relations,
		predicates:   predicates,
	}
}

// ResolveEntity finds the graph node behind a name or alias. Lookup
// order: canonical key, display name (case-insensitive), alias. Returns
// nil when nothing matches.
func (r *GraphReader) ResolveEntity(ctx context.Context, nameOrAlias string) (*types.GraphEntity, error) {
	nameOrAlias = strings.TrimSpace(nameOrAlias)
	if nameOrAlias == "" {
		return nil, nil
	}

	// Query keys are normalized differently from ingestion keys, so
	// fold to lowercase before hitting the canonical column.
	key := strings.ToLower(kg.QueryKey(nameOrAlias))
	entity, err := r.entities.GetByCanonicalKey(ctx, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if entity != nil {
		return entity, nil
	}

	entity, err = r.entities.GetByName(ctx, nameOrAlias)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if entity != nil {
		return entity, nil
	}

	alias, err := r.aliases.GetByAlias(ctx, nameOrAlias)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if alias != nil {
		return r.entities.Get(ctx, alias.EntityID)
	}
	return nil, nil
}

// CountRelations counts how many relations the subject holds for the
// predicate phrase, expanded through the synonym table. A nil answer
// means the subject is not in the graph.
func (r *GraphReader) CountRelations(ctx context.Context, subjectName, objectPhrase string, documentID *string) (*KgCountAnswer, error) {
	subject, err := r.ResolveEntity(ctx, subjectName)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, nil
	}

	predicates := kg.PredicateSynonyms(r.predicates, objectPhrase)
	count, err := r.relations.CountBySubjectAndPredicates(ctx, subject.Name, predicates, documentID)
	if err != nil {
		return nil, err
	}

	return &KgCountAnswer{
		CharacterName: subject.Name,
		Count:         count,
		DocumentID:    documentID,
	}, nil
}

// CountBattlesLost counts the distinct battles the character lost,
// built from structured event participation rather than text scanning.
func (r *GraphReader) CountBattlesLost(ctx context.Context, nameOrAlias string, documentID *string) (*KgCountAnswer, error) {
	entity, err := r.ResolveEntity(ctx, nameOrAlias)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}

	count, err := r.participants.CountDistinctEvents(ctx, entity.ID, OUTCOME_LOSS, EVENT_TYPE_BATTLE, documentID)
	if err != nil {
		return nil, err
	}

	return &KgCountAnswer{
		CharacterName: entity.Name,
		Count:         count,
		DocumentID:    documentID,
	}, nil
}
