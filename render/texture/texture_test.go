package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeMip_HalvesDimensions(t *testing.T) {
	width, height := 4, 4
	src := make([]byte, width*height*4)
	for i := range src {
		src[i] = 128
	}

	dst, dw, dh := SynthesizeMip(src, width, height)
	assert.Equal(t, 2, dw)
	assert.Equal(t, 2, dh)
	assert.Len(t, dst, dw*dh*4)
}

func TestSynthesizeMip_FloorsOddDimensionsToAtLeastOne(t *testing.T) {
	_, dw, dh := SynthesizeMip(make([]byte, 4), 1, 1)
	assert.Equal(t, 1, dw)
	assert.Equal(t, 1, dh)
}

func TestErrorTexturePixels_IsOpaqueMagenta(t *testing.T) {
	px := ErrorTexturePixels()
	assert.Equal(t, []byte{255, 0, 255, 255}, px)
}
