package kg

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPredicates = map[string][]string{
	"child": {"son", "daughter", "children"},
}

func TestRouteAcceptsConfidentRelationCount(t *testing.T) {
	driver := &fakeChatDriver{reply: `{"intent":"relation_count","subject":"Cao Cao","predicate":"child","object":"children","confidence":0.8}`}
	router := NewRouter(driver, testPredicates)

	route, ok := router.Route(context.Background(), "How many children did Cao Cao have?")
	require.True(t, ok)
	assert.Equal(t, "Cao Cao", route.Subject)
	assert.Equal(t, "child", route.Predicate)
	assert.InDelta(t, 0.8, route.Confidence, 1e-9)
}

func TestRouteRejectsLowConfidence(t *testing.T) {
	driver := &fakeChatDriver{reply: `{"intent":"relation_count","subject":"Cao Cao","predicate":"child","confidence":0.39}`}
	router := NewRouter(driver, testPredicates)

	_, ok := router.Route(context.Background(), "How many children did Cao Cao have?")
	assert.False(t, ok)
}

func TestRouteRejectsOtherIntents(t *testing.T) {
	driver := &fakeChatDriver{reply: `{"intent":"none","subject":"","predicate":"","confidence":0.9}`}
	router := NewRouter(driver, testPredicates)

	_, ok := router.Route(context.Background(), "Tell me about the Han dynasty")
	assert.False(t, ok)
}

func TestRouteFallsBackOnChatError(t *testing.T) {
	driver := &fakeChatDriver{err: fmt.Errorf("timeout")}
	router := NewRouter(driver, testPredicates)

	_, ok := router.Route(context.Background(), "How many children did Cao Cao have?")
	assert.False(t, ok)
}

func TestRouteFallsBackOnBadJSON(t *testing.T) {
	driver := &fakeChatDriver{reply: "I think the answer is 3"}
	router := NewRouter(driver, testPredicates)

	_, ok := router.Route(context.Background(), "How many children did Cao Cao have?")
	assert.False(t, ok)
}

func TestRouteBlankQuestion(t *testing.T) {
	driver := &fakeChatDriver{reply: `{"intent":"relation_count","subject":"x","predicate":"y","confidence":1}`}
	router := NewRouter(driver, testPredicates)

	_, ok := router.Route(context.Background(), "   ")
	assert.False(t, ok)
	assert.Nil(t, driver.seen, "blank questions must not reach the model")
}

// Predicate precedence: explicit predicate wins, then synonym table
// match on the object phrase, then the lowercased phrase itself.
func TestChoosePredicatePrecedence(t *testing.T) {
	driver := &fakeChatDriver{}
	router := NewRouter(driver, testPredicates)

	assert.Equal(t, "child", router.choosePredicate("Child", "anything"))
	assert.Equal(t, "child", router.choosePredicate("", "how many sons"))
	assert.Equal(t, "battles won", router.choosePredicate("", "Battles Won"))
	assert.Equal(t, "", router.choosePredicate("", ""))
}

func TestPredicateSynonyms(t *testing.T) {
	set := PredicateSynonyms(testPredicates, "sons")
	assert.Equal(t, []string{"child", "son", "daughter", "children"}, set)

	set = PredicateSynonyms(testPredicates, "battles")
	assert.Equal(t, []string{"battles"}, set)

	assert.Nil(t, PredicateSynonyms(testPredicates, "  "))
}
