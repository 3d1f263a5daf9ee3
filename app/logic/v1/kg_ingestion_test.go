package v1_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
	"github.com/chronicle-ai/chronicle/pkg/kg"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

type fakeEntityStore struct {
	nextID   int64
	entities []*types.GraphEntity
}

func (f *fakeEntityStore) GetTable(...interface{}) string { return "entities" }

func (f *fakeEntityStore) Create(ctx context.Context, data *types.GraphEntity) error {
	f.nextID++
	data.ID = f.nextID
	clone := *data
	f.entities = append(f.entities, &clone)
	return nil
}

func (f *fakeEntityStore) GetByCanonicalKey(ctx context.Context, key string) (*types.GraphEntity, error) {
	for _, e := range f.entities {
		if e.CanonicalKey == key {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEntityStore) GetByName(ctx context.Context, name string) (*types.GraphEntity, error) {
	for _, e := range f.entities {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEntityStore) Get(ctx context.Context, id int64) (*types.GraphEntity, error) {
	for _, e := range f.entities {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEntityStore) ListAll(ctx context.Context) ([]types.GraphEntity, error) {
	var out []types.GraphEntity
	for _, e := range f.entities {
		out = append(out, *e)
	}
	return out, nil
}

type fakeAliasStore struct {
	nextID  int64
	aliases []*types.EntityAlias
}

func (f *fakeAliasStore) GetTable(...interface{}) string { return "aliases" }

func (f *fakeAliasStore) Create(ctx context.Context, data *types.EntityAlias) error {
	f.nextID++
	data.ID = f.nextID
	clone := *data
	f.aliases = append(f.aliases, &clone)
	return nil
}

func (f *fakeAliasStore) GetByAlias(ctx context.Context, alias string) (*types.EntityAlias, error) {
	for _, a := range f.aliases {
		if strings.EqualFold(a.Alias, alias) {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeEventStore struct {
	nextID int64
	events []*types.Event
}

func (f *fakeEventStore) GetTable(...interface{}) string { return "events" }

func (f *fakeEventStore) Create(ctx context.Context, data *types.Event) error {
	f.nextID++
	data.ID = f.nextID
	clone := *data
	f.events = append(f.events, &clone)
	return nil
}

type fakeParticipantStore struct {
	nextID       int64
	events       *fakeEventStore
	participants []*types.EventParticipant
}

func (f *fakeParticipantStore) GetTable(...interface{}) string { return "participants" }

func (f *fakeParticipantStore) Create(ctx context.Context, data *types.EventParticipant) error {
	f.nextID++
	data.ID = f.nextID
	clone := *data
	f.participants = append(f.participants, &clone)
	return nil
}

func (f *fakeParticipantStore) CountDistinctEvents(ctx context.Context, actorID int64, outcome, eventType string, documentID *string) (int64, error) {
	seen := map[int64]struct{}{}
	for _, p := range f.participants {
		if p.ActorID != actorID || !strings.EqualFold(p.Outcome, outcome) {
			continue
		}
		if documentID != nil && p.DocumentID != *documentID {
			continue
		}
		event := f.lookupEvent(p.EventID)
		if event == nil || !strings.EqualFold(event.EventType, eventType) {
			continue
		}
		seen[p.EventID] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (f *fakeParticipantStore) lookupEvent(id int64) *types.Event {
	if f.events == nil {
		return nil
	}
	for _, e := range f.events.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

type fakeRelationStore struct {
	entities  *fakeEntityStore
	relations []*types.Relation
}

func (f *fakeRelationStore) GetTable(...interface{}) string { return "relations" }

func (f *fakeRelationStore) Create(ctx context.Context, data *types.Relation) error {
	clone := *data
	f.relations = append(f.relations, &clone)
	return nil
}

func (f *fakeRelationStore) ListByDocument(ctx context.Context, documentID string) ([]types.RelationRow, error) {
	var out []types.RelationRow
	for _, r := range f.relations {
		if r.DocumentID != documentID {
			continue
		}
		row := types.RelationRow{Relation: *r}
		if subject, err := f.entities.Get(ctx, r.SubjectID); err == nil {
			row.SubjectKey = subject.CanonicalKey
		}
		if r.ObjectEntityID != nil {
			if object, err := f.entities.Get(ctx, *r.ObjectEntityID); err == nil {
				key := object.CanonicalKey
				row.ObjectKey = &key
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeRelationStore) CountBySubjectAndPredicates(ctx context.Context, subjectName string, predicates []string, documentID *string) (int64, error) {
	var count int64
	for _, r := range f.relations {
		subject, err := f.entities.Get(ctx, r.SubjectID)
		if err != nil || !strings.EqualFold(subject.Name, subjectName) {
			continue
		}
		for _, p := range predicates {
			if strings.EqualFold(r.Predicate, p) {
				count++
				break
			}
		}
	}
	return count, nil
}

func newTestWriter() (*v1.GraphWriter, *fakeEntityStore, *fakeAliasStore, *fakeEventStore, *fakeParticipantStore, *fakeRelationStore) {
	entities := &fakeEntityStore{}
	aliases := &fakeAliasStore{}
	events := &fakeEventStore{}
	participants := &fakeParticipantStore{events: events}
	relations := &fakeRelationStore{entities: entities}
	writer := v1.NewGraphWriter(entities, aliases, events, participants, relations)
	return writer, entities, aliases, events, participants, relations
}

func sampleExtraction() kg.Extraction {
	idx := 0
	return kg.Extraction{
		Entities: []kg.ExtractedEntity{
			{Name: "Cao Cao", CanonicalKey: "cao_cao", EntityType: "person", Aliases: []string{"Mengde"}},
			{Name: "Liu Bei", EntityType: "person"},
		},
		Events: []kg.ExtractedEvent{
			{EventType: "battle", Name: "Battle of Red Cliffs", Location: "Red Cliffs"},
		},
		Participants: []kg.ExtractedParticipant{
			{EventName: "Battle of Red Cliffs", ActorName: "Cao Cao", Role: "attacker", Outcome: "loss", ChunkIndex: &idx},
		},
		Relations: []kg.ExtractedRelation{
			{SubjectName: "Cao Cao", Predicate: "child", ObjectName: "Cao Pi", ChunkIndex: &idx},
			{SubjectName: "Cao Cao", Predicate: "rival", ObjectText: "the Sun clan"},
		},
	}
}

func TestGraphWriterWritesFacts(t *testing.T) {
	writer, entities, aliases, events, participants, relations := newTestWriter()
	chunks := []types.Chunk{{ID: "chunk-0", DocumentID: "doc-1", ChunkIndex: 0}}

	require.NoError(t, writer.Write(context.Background(), "doc-1", chunks, sampleExtraction()))

	// Cao Cao, Liu Bei, and the auto-created Cao Pi
	assert.Len(t, entities.entities, 3)
	assert.Equal(t, "cao_cao", entities.entities[0].CanonicalKey)
	assert.Equal(t, "liu_bei", entities.entities[1].CanonicalKey)
	assert.Equal(t, "cao_pi", entities.entities[2].CanonicalKey)

	require.Len(t, aliases.aliases, 1)
	assert.Equal(t, "Mengde", aliases.aliases[0].Alias)

	require.Len(t, events.events, 1)
	require.Len(t, participants.participants, 1)
	assert.Equal(t, events.events[0].ID, participants.participants[0].EventID)
	require.NotNil(t, participants.participants[0].ChunkID)
	assert.Equal(t, "chunk-0", *participants.participants[0].ChunkID)

	require.Len(t, relations.relations, 2)
	assert.NotNil(t, relations.relations[0].ObjectEntityID)
	require.NotNil(t, relations.relations[1].ObjectText)
	assert.Equal(t, "the Sun clan", *relations.relations[1].ObjectText)
}

func TestGraphWriterEntityResolutionNoDuplicates(t *testing.T) {
	writer, entities, _, _, _, _ := newTestWriter()

	extraction := kg.Extraction{
		Entities: []kg.ExtractedEntity{
			{Name: "Cao Cao", CanonicalKey: "cao_cao"},
			{Name: "cao cao"},            // same canonical key
			{Name: "CAO CAO"},            // same name, different case
			{Name: "Cao Cao", Aliases: []string{"Mengde"}},
		},
	}

	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, extraction))
	assert.Len(t, entities.entities, 1)
}

func TestGraphWriterRelationDedup(t *testing.T) {
	writer, _, _, _, _, relations := newTestWriter()

	extraction := kg.Extraction{
		Relations: []kg.ExtractedRelation{
			{SubjectName: "Cao Cao", Predicate: "child", ObjectName: "Cao Pi"},
			{SubjectName: "Cao Cao", Predicate: "Child", ObjectName: "cao pi"}, // duplicate after normalization
		},
	}
	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, extraction))
	assert.Len(t, relations.relations, 1)

	// a second run over the same document sees the persisted relation
	writer2 := v1.NewGraphWriter(relations.entities, &fakeAliasStore{}, &fakeEventStore{}, &fakeParticipantStore{}, relations)
	require.NoError(t, writer2.Write(context.Background(), "doc-1", nil, extraction))
	assert.Len(t, relations.relations, 1)

	// the same triple in a different document is a new row
	writer3 := v1.NewGraphWriter(relations.entities, &fakeAliasStore{}, &fakeEventStore{}, &fakeParticipantStore{}, relations)
	require.NoError(t, writer3.Write(context.Background(), "doc-2", nil, extraction))
	assert.Len(t, relations.relations, 2)
}

func TestGraphWriterResolvesActorThroughAlias(t *testing.T) {
	writer, entities, aliases, _, _, relations := newTestWriter()

	seed := kg.Extraction{
		Entities: []kg.ExtractedEntity{
			{Name: "Cao Cao", CanonicalKey: "cao_cao", Aliases: []string{"Mengde"}},
		},
	}
	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, seed))

	followup := kg.Extraction{
		Relations: []kg.ExtractedRelation{
			{SubjectName: "Mengde", Predicate: "child", ObjectText: "a son"},
		},
	}
	writer2 := v1.NewGraphWriter(entities, aliases, &fakeEventStore{}, &fakeParticipantStore{}, relations)
	require.NoError(t, writer2.Write(context.Background(), "doc-2", nil, followup))

	// the alias resolved to the existing entity instead of a new node
	assert.Len(t, entities.entities, 1)
	require.Len(t, relations.relations, 1)
	assert.Equal(t, entities.entities[0].ID, relations.relations[0].SubjectID)
}

func TestGraphWriterStoresObjectlessRelation(t *testing.T) {
	writer, _, _, _, _, relations := newTestWriter()

	extraction := kg.Extraction{
		Relations: []kg.ExtractedRelation{
			{SubjectName: "Cao Cao", Predicate: "died"},
			{SubjectName: "Cao Cao", Predicate: "Died"}, // duplicate after normalization
		},
	}
	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, extraction))

	require.Len(t, relations.relations, 1)
	assert.Nil(t, relations.relations[0].ObjectEntityID)
	assert.Nil(t, relations.relations[0].ObjectText)

	// a second run over the same document still dedups against the row
	writer2 := v1.NewGraphWriter(relations.entities, &fakeAliasStore{}, &fakeEventStore{}, &fakeParticipantStore{}, relations)
	require.NoError(t, writer2.Write(context.Background(), "doc-1", nil, extraction))
	assert.Len(t, relations.relations, 1)
}

func TestGraphWriterSkipsBlankActorParticipant(t *testing.T) {
	writer, _, _, events, participants, _ := newTestWriter()

	extraction := kg.Extraction{
		Events: []kg.ExtractedEvent{
			{EventType: "battle", Name: "Battle of Guandu"},
		},
		Participants: []kg.ExtractedParticipant{
			{EventName: "Battle of Guandu", ActorName: "  ", Outcome: "loss"},
		},
	}
	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, extraction))

	assert.Len(t, events.events, 1)
	assert.Empty(t, participants.participants)
}

func TestGraphWriterSkipsUnknownEventParticipant(t *testing.T) {
	writer, _, _, _, participants, _ := newTestWriter()

	extraction := kg.Extraction{
		Participants: []kg.ExtractedParticipant{
			{EventName: "Nonexistent Battle", ActorName: "Cao Cao", Outcome: "loss"},
		},
	}
	require.NoError(t, writer.Write(context.Background(), "doc-1", nil, extraction))
	assert.Empty(t, participants.participants)
}
