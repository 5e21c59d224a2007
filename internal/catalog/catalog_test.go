package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogOrder(t *testing.T) {
	c := New()
	require.Equal(t, 8, c.Len())
	assert.Equal(t, SectionPersonal, c.At(0).ID)
	assert.Equal(t, SectionReference, c.At(c.Len()-1).ID)
	assert.True(t, c.Last(c.Len()-1))
	assert.False(t, c.Last(0))
}

func TestCatalogClamping(t *testing.T) {
	c := New()
	assert.Equal(t, 0, c.Prev(0))
	assert.Equal(t, c.Len()-1, c.Next(c.Len()-1))
	assert.Equal(t, 0, c.Clamp(-5))
	assert.Equal(t, c.Len()-1, c.Clamp(100))
	assert.Equal(t, 3, c.Next(2))
	assert.Equal(t, 1, c.Prev(2))
}

func TestCatalogIndexOf(t *testing.T) {
	c := New()
	assert.Equal(t, 6, c.IndexOf(SectionDocuments))
	assert.Equal(t, -1, c.IndexOf("unknown"))
}

func TestCatalogFieldOwnership(t *testing.T) {
	c := New()
	ref := c.At(c.IndexOf(SectionReference))
	assert.Contains(t, ref.Fields, "references")
	assert.Contains(t, ref.Fields, "agreement_accepted")

	docs := c.At(c.IndexOf(SectionDocuments))
	assert.Empty(t, docs.Fields)
}
