package kg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "cao_cao", CanonicalKey("Cao Cao"))
	assert.Equal(t, "cao_cao", CanonicalKey("  cao   cao  "))
	assert.Equal(t, "", CanonicalKey("   "))
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "CAO_CAO", QueryKey("Cao Cao"))
	// diacritics are stripped before casing
	assert.Equal(t, "ZHUGE_LIANG", QueryKey("Zhugé Liàng"))
	assert.Equal(t, "", QueryKey(" "))
}

func TestRelationHash(t *testing.T) {
	a := RelationHash("cao_cao", "Child", "cao_pi")
	b := RelationHash("cao_cao", "child", "cao_pi")
	assert.Equal(t, a, b, "predicate case must not change the hash")

	assert.NotEqual(t, a, RelationHash("cao_cao", "child", "cao_zhi"))
	assert.NotEqual(t, a, RelationHash("liu_bei", "child", "cao_pi"))
	assert.Equal(t, "cao_cao|child|cao_pi", a)
}
