package v1_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func newTestReader() (*v1.GraphReader, *fakeEntityStore, *fakeAliasStore, *fakeEventStore, *fakeParticipantStore, *fakeRelationStore) {
	entities := &fakeEntityStore{}
	aliases := &fakeAliasStore{}
	events := &fakeEventStore{}
	participants := &fakeParticipantStore{events: events}
	relations := &fakeRelationStore{entities: entities}
	reader := v1.NewGraphReader(entities, aliases, participants, relations, map[string][]string{
		"child": {"child", "son", "daughter"},
	})
	return reader, entities, aliases, events, participants, relations
}

func TestCountBattlesLost(t *testing.T) {
	reader, entities, aliases, events, participants, _ := newTestReader()
	ctx := context.Background()

	caocao := &types.GraphEntity{Name: "Cao Cao", CanonicalKey: "cao_cao"}
	require.NoError(t, entities.Create(ctx, caocao))
	require.NoError(t, aliases.Create(ctx, &types.EntityAlias{EntityID: caocao.ID, Alias: "Mengde"}))

	addEvent := func(name, eventType, documentID string) int64 {
		event := &types.Event{Name: name, EventType: eventType, DocumentID: documentID}
		require.NoError(t, events.Create(ctx, event))
		return event.ID
	}
	addParticipant := func(eventID int64, outcome, documentID string) {
		require.NoError(t, participants.Create(ctx, &types.EventParticipant{
			EventID:    eventID,
			ActorID:    caocao.ID,
			Outcome:    outcome,
			DocumentID: documentID,
		}))
	}

	redCliffs := addEvent("Battle of Red Cliffs", "battle", "doc-1")
	addParticipant(redCliffs, "loss", "doc-1")
	addParticipant(redCliffs, "loss", "doc-1") // duplicate row, same event
	addParticipant(addEvent("Battle of Wan", "battle", "doc-1"), "loss", "doc-1")
	addParticipant(addEvent("Battle of Tong Pass", "battle", "doc-2"), "loss", "doc-2")
	addParticipant(addEvent("Siege of Xiapi", "siege", "doc-1"), "loss", "doc-1")
	addParticipant(addEvent("Battle of Guandu", "battle", "doc-1"), "win", "doc-1")

	answer, err := reader.CountBattlesLost(ctx, "Cao Cao", nil)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "Cao Cao", answer.CharacterName)
	assert.Equal(t, int64(3), answer.Count)

	doc1 := "doc-1"
	scoped, err := reader.CountBattlesLost(ctx, "Cao Cao", &doc1)
	require.NoError(t, err)
	require.NotNil(t, scoped)
	assert.Equal(t, int64(2), scoped.Count)
	require.NotNil(t, scoped.DocumentID)
	assert.Equal(t, doc1, *scoped.DocumentID)

	// alias resolves to the same entity
	viaAlias, err := reader.CountBattlesLost(ctx, "Mengde", nil)
	require.NoError(t, err)
	require.NotNil(t, viaAlias)
	assert.Equal(t, int64(3), viaAlias.Count)

	// unknown characters yield no answer rather than a zero count
	missing, err := reader.CountBattlesLost(ctx, "Sun Quan", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCountRelationsExpandsSynonyms(t *testing.T) {
	reader, entities, _, _, _, relations := newTestReader()
	ctx := context.Background()

	caocao := &types.GraphEntity{Name: "Cao Cao", CanonicalKey: "cao_cao"}
	require.NoError(t, entities.Create(ctx, caocao))

	for _, predicate := range []string{"son", "child", "rival"} {
		text := "someone"
		require.NoError(t, relations.Create(ctx, &types.Relation{
			SubjectID:  caocao.ID,
			Predicate:  predicate,
			ObjectText: &text,
			DocumentID: "doc-1",
		}))
	}

	answer, err := reader.CountRelations(ctx, "Cao Cao", "child", nil)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, int64(2), answer.Count)
}

func TestResolveEntityByCanonicalKey(t *testing.T) {
	reader, entities, _, _, _, _ := newTestReader()
	ctx := context.Background()

	zhuge := &types.GraphEntity{Name: "Zhuge Liang", CanonicalKey: "zhuge_liang"}
	require.NoError(t, entities.Create(ctx, zhuge))

	// the query-side key normalizes diacritics and case before lookup
	entity, err := reader.ResolveEntity(ctx, "Zhūgé Liàng")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, zhuge.ID, entity.ID)
}
