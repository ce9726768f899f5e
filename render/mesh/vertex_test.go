package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayout_AttributesRoundTrip(t *testing.T) {
	l := LayoutOf(AttributePosition, AttributeUV0)
	assert.True(t, l.Has(AttributePosition))
	assert.True(t, l.Has(AttributeUV0))
	assert.False(t, l.Has(AttributeNormal))
	assert.Equal(t, []Attribute{AttributePosition, AttributeUV0}, l.Attributes())
}

func TestAttribute_Stride(t *testing.T) {
	assert.Equal(t, uint32(12), AttributePosition.Stride())
	assert.Equal(t, uint32(16), AttributeColor.Stride())
	assert.Equal(t, uint32(8), AttributeUV0.Stride())
}
