package v1

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/app/store"
	"github.com/chronicle-ai/chronicle/pkg/errors"
	"github.com/chronicle-ai/chronicle/pkg/kg"
	"github.com/chronicle-ai/chronicle/pkg/types"
	"github.com/chronicle-ai/chronicle/pkg/utils"
)

type IngestionLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewIngestionLogic(ctx context.Context, core *core.Core) *IngestionLogic {
	return &IngestionLogic{
		ctx:  ctx,
		core: core,
	}
}

type RunReport struct {
	RunID     int64   `json:"run_id"`
	Claimed   int     `json:"claimed"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Error     *string `json:"error,omitempty"`
}

// RunOnce claims up to limit pending documents and extracts graph facts
// for each. The claim and all graph writes share one transaction, so a
// crashed run releases its row locks and the documents stay claimable.
// A document that fails extraction is marked FAILED and is not retried
// automatically. A run-level fault is folded into the report rather than
// returned, so callers always get the run id and counts back.
func (l *IngestionLogic) RunOnce(limit int) (*RunReport, error) {
	runID, err := l.core.Store().KgRunHistoryStore().StartRun(l.ctx)
	if err != nil {
		return nil, errors.New("IngestionLogic.RunOnce.StartRun", "internal error", err)
	}

	report := &RunReport{RunID: runID}
	var docErrors []string

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		ids, err := l.core.Store().DocumentStore().ClaimPending(ctx, limit)
		if err != nil {
			return err
		}
		report.Claimed = len(ids)

		for _, id := range ids {
			if err := l.processDocument(ctx, id); err != nil {
				report.Failed++
				docErrors = append(docErrors, fmt.Sprintf("%s: %s", id, err.Error()))
				continue
			}
			report.Completed++
		}
		return nil
	})

	status := finalizeRun(report, err, docErrors)

	if ferr := l.core.Store().KgRunHistoryStore().FinishRun(l.ctx, runID, status, report.Completed, report.Error); ferr != nil {
		slog.Error("failed to finish KG run record", slog.Int64("run_id", runID), slog.String("error", ferr.Error()))
	}

	return report, nil
}

// finalizeRun folds a transaction fault and per-document failures into
// the report and returns the run-history status.
func finalizeRun(report *RunReport, txErr error, docErrors []string) string {
	if txErr != nil {
		msg := txErr.Error()
		report.Error = &msg
		return types.RUN_STATUS_FAILED
	}
	if len(docErrors) > 0 {
		msg := strings.Join(docErrors, "; ")
		report.Error = &msg
	}
	return types.RUN_STATUS_COMPLETED
}

func (l *IngestionLogic) processDocument(ctx context.Context, documentID string) error {
	docs := l.core.Store().DocumentStore()
	if err := docs.UpdateKgStatus(ctx, documentID, types.KG_STATUS_PROCESSING, nil); err != nil {
		return err
	}

	err := l.extractAndWrite(ctx, documentID)
	if err != nil {
		msg := err.Error()
		if uerr := docs.UpdateKgStatus(ctx, documentID, types.KG_STATUS_FAILED, &msg); uerr != nil {
			return uerr
		}
		l.core.Metrics().IngestedDocumentInc(types.KG_STATUS_FAILED)
		return err
	}

	if err := docs.UpdateKgStatus(ctx, documentID, types.KG_STATUS_COMPLETED, nil); err != nil {
		return err
	}
	l.core.Metrics().IngestedDocumentInc(types.KG_STATUS_COMPLETED)
	return nil
}

func (l *IngestionLogic) extractAndWrite(ctx context.Context, documentID string) error {
	chunks, err := l.core.Store().ChunkStore().ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	timer := l.core.Metrics().ExtractionTimer()
	extraction := l.core.Extractor().Extract(ctx, chunks)
	timer.ObserveDuration()

	if extraction.Empty() {
		slog.Info("extraction produced no facts", slog.String("document_id", documentID))
		return nil
	}

	writer := NewGraphWriter(
		l.core.Store().GraphEntityStore(),
		l.core.Store().EntityAliasStore(),
		l.core.Store().EventStore(),
		l.core.Store().EventParticipantStore(),
		l.core.Store().RelationStore(),
	)
	return writer.Write(ctx, documentID, chunks, extraction)
}

type StatusReport struct {
	Counts     types.KgStatusCounts `json:"counts"`
	RecentRuns []types.KgRunHistory `json:"recent_runs"`
}

// Status reports document counts per knowledge-graph state together
// with the latest run records.
func (l *IngestionLogic) Status() (*StatusReport, error) {
	counts, err := l.core.Store().DocumentStore().CountByKgStatus(l.ctx)
	if err != nil {
		return nil, errors.New("IngestionLogic.Status.CountByKgStatus", "internal error", err)
	}
	runs, err := l.core.Store().KgRunHistoryStore().RecentRuns(l.ctx, 10)
	if err != nil {
		return nil, errors.New("IngestionLogic.Status.RecentRuns", "internal error", err)
	}
	return &StatusReport{Counts: counts, RecentRuns: runs}, nil
}

func (l *IngestionLogic) RecentRuns(limit int) ([]types.KgRunHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := l.core.Store().KgRunHistoryStore().RecentRuns(l.ctx, limit)
	if err != nil {
		return nil, errors.New("IngestionLogic.RecentRuns", "internal error", err)
	}
	return runs, nil
}

// GraphWriter persists one document's extraction. It takes the store
// interfaces directly so resolution logic is testable against fakes.
type GraphWriter struct {
	entities     store.GraphEntityStore
	aliases      store.EntityAliasStore
	events       store.EventStore
	participants store.EventParticipantStore
	relations    store.RelationStore

	byCanonical map[string]*types.GraphEntity
	byNameLower map[string]*types.GraphEntity
}

func NewGraphWriter(
	entities store.GraphEntityStore,
	aliases store.EntityAliasStore,
	events store.EventStore,
	participants store.EventParticipantStore,
	relations store.RelationStore,
) *GraphWriter {
	return &GraphWriter{
		entities:     entities,
		aliases:      aliases,
		events:       events,
		participants: participants,
		relations:    relations,
		byCanonical:  make(map[string]*types.GraphEntity),
		byNameLower:  make(map[string]*types.GraphEntity),
	}
}

func (w *GraphWriter) Write(ctx context.Context, documentID string, chunks []types.Chunk, extraction kg.Extraction) error {
	chunkByIndex := make(map[int]string, len(chunks))
	for _, c := range chunks {
		chunkByIndex[c.ChunkIndex] = c.ID
	}

	if err := w.upsertEntities(ctx, extraction.Entities); err != nil {
		return err
	}

	eventIDs, err := w.createEvents(ctx, documentID, extraction.Events)
	if err != nil {
		return err
	}

	if err := w.createParticipants(ctx, documentID, extraction.Participants, eventIDs, chunkByIndex); err != nil {
		return err
	}

	return w.createRelations(ctx, documentID, extraction.Relations, chunkByIndex)
}

func (w *GraphWriter) upsertEntities(ctx context.Context, entities []kg.ExtractedEntity) error {
	for _, item := range entities {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}

		key := kg.CanonicalKey(item.CanonicalKey)
		if key == "" {
			key = kg.CanonicalKey(name)
		}

		entity, err := w.resolveExisting(ctx, name, key)
		if err != nil {
			return err
		}
		if entity == nil {
			entity = &types.GraphEntity{
				Name:         name,
				CanonicalKey: key,
				EntityType:   item.EntityType,
				Description:  item.Description,
			}
			if err = w.entities.Create(ctx, entity); err != nil {
				return err
			}
		}
		w.remember(entity)

		for _, alias := range item.Aliases {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			if err = w.aliases.Create(ctx, &types.EntityAlias{
				EntityID: entity.ID,
				Alias:    alias,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveExisting checks the canonical key first, then the display name
// case-insensitively. A nil result with nil error means "not found".
func (w *GraphWriter) resolveExisting(ctx context.Context, name, key string) (*types.GraphEntity, error) {
	if hit, ok := w.byCanonical[key]; ok {
		return hit, nil
	}
	if hit, ok := w.byNameLower[strings.ToLower(name)]; ok {
		return hit, nil
	}

	entity, err := w.entities.GetByCanonicalKey(ctx, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if entity != nil {
		return entity, nil
	}

	entity, err = w.entities.GetByName(ctx, name)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return entity, nil
}

// resolveActor finds the entity behind a mention, falling back through
// canonical key, name, then alias, and finally auto-creates a minimal
// entity so no extracted fact is dropped for lack of a node.
func (w *GraphWriter) resolveActor(ctx context.Context, name string) (*types.GraphEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty actor name")
	}

	entity, err := w.resolveExisting(ctx, name, kg.CanonicalKey(name))
	if err != nil {
		return nil, err
	}
	if entity != nil {
		w.remember(entity)
		return entity, nil
	}

	alias, err := w.aliases.GetByAlias(ctx, name)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if alias != nil {
		entity, err = w.entities.Get(ctx, alias.EntityID)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		if entity != nil {
			w.remember(entity)
			return entity, nil
		}
	}

	entity = &types.GraphEntity{
		Name:         name,
		CanonicalKey: kg.CanonicalKey(name),
	}
	if err = w.entities.Create(ctx, entity); err != nil {
		return nil, err
	}
	w.remember(entity)
	return entity, nil
}

func (w *GraphWriter) remember(entity *types.GraphEntity) {
	w.byCanonical[entity.CanonicalKey] = entity
	w.byNameLower[strings.ToLower(entity.Name)] = entity
}

func (w *GraphWriter) createEvents(ctx context.Context, documentID string, events []kg.ExtractedEvent) (map[string]int64, error) {
	ids := make(map[string]int64, len(events))
	for _, item := range events {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		event := &types.Event{
			DocumentID:    documentID,
			EventType:     item.EventType,
			EventCategory: item.EventCategory,
			Name:          name,
			Chapter:       item.Chapter,
			Location:      item.Location,
			StartYear:     item.StartYear,
			EndYear:       item.EndYear,
		}
		if err := w.events.Create(ctx, event); err != nil {
			return nil, err
		}
		ids[strings.ToLower(name)] = event.ID
	}
	return ids, nil
}

func (w *GraphWriter) createParticipants(ctx context.Context, documentID string, participants []kg.ExtractedParticipant, eventIDs map[string]int64, chunkByIndex map[int]string) error {
	for _, item := range participants {
		eventID, ok := eventIDs[strings.ToLower(strings.TrimSpace(item.EventName))]
		if !ok {
			slog.Warn("participant references unknown event",
				slog.String("event", item.EventName), slog.String("actor", item.ActorName))
			continue
		}
		actorName := strings.TrimSpace(item.ActorName)
		if actorName == "" {
			slog.Warn("participant missing actor name", slog.String("event", item.EventName))
			continue
		}

		actor, err := w.resolveActor(ctx, actorName)
		if err != nil {
			return err
		}

		var chunkID *string
		if item.ChunkIndex != nil {
			if id, ok := chunkByIndex[*item.ChunkIndex]; ok {
				chunkID = &id
			}
		}

		if err = w.participants.Create(ctx, &types.EventParticipant{
			EventID:    eventID,
			ActorID:    actor.ID,
			Role:       item.Role,
			Outcome:    item.Outcome,
			DocumentID: documentID,
			ChunkID:    chunkID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// createRelations skips any triple whose normalized hash already exists
// for this document, either persisted by an earlier run or produced
// twice in this batch.
func (w *GraphWriter) createRelations(ctx context.Context, documentID string, relations []kg.ExtractedRelation, chunkByIndex map[int]string) error {
	existing, err := w.relations.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		obj := ""
		if row.ObjectKey != nil {
			obj = *row.ObjectKey
		} else if row.ObjectText != nil {
			obj = strings.ToLower(*row.ObjectText)
		}
		seen[kg.RelationHash(row.SubjectKey, row.Predicate, obj)] = struct{}{}
	}

	for _, item := range relations {
		predicate := strings.TrimSpace(item.Predicate)
		if strings.TrimSpace(item.SubjectName) == "" || predicate == "" {
			continue
		}

		subject, err := w.resolveActor(ctx, item.SubjectName)
		if err != nil {
			return err
		}

		var (
			objectEntityID *int64
			objectText     *string
			objectHashPart string
		)
		if objectName := strings.TrimSpace(item.ObjectName); objectName != "" {
			object, err := w.resolveActor(ctx, objectName)
			if err != nil {
				return err
			}
			objectEntityID = &object.ID
			objectHashPart = object.CanonicalKey
		} else if text := strings.TrimSpace(item.ObjectText); text != "" {
			objectText = &text
			objectHashPart = strings.ToLower(text)
		}

		hash := kg.RelationHash(subject.CanonicalKey, predicate, objectHashPart)
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}

		var chunkID *string
		if item.ChunkIndex != nil {
			if id, ok := chunkByIndex[*item.ChunkIndex]; ok {
				chunkID = &id
			}
		}

		if err = w.relations.Create(ctx, &types.Relation{
			ID:             utils.GenRandomID(),
			SubjectID:      subject.ID,
			Predicate:      predicate,
			ObjectEntityID: objectEntityID,
			ObjectText:     objectText,
			DocumentID:     documentID,
			ChunkID:        chunkID,
			CreatedAt:      time.Now().Unix(),
		}); err != nil {
			return err
		}
	}
	return nil
}
