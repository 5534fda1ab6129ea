package phases

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func grayImage(level uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
		}
	}
	return img
}

func TestApplyGamma_IdentityForUnitGamma(t *testing.T) {
	src := grayImage(100)
	assert.Same(t, image.Image(src), applyGamma(src, 1.0))
	assert.Same(t, image.Image(src), applyGamma(src, 0))
}

func TestApplyGamma_BrightensMidtones(t *testing.T) {
	out := applyGamma(grayImage(64), 2.2)
	c := color.RGBAModel.Convert(out.At(0, 0)).(color.RGBA)

	// gamma > 1 lifts midtones: 255*(64/255)^(1/2.2) ~ 136
	assert.Greater(t, c.R, uint8(64))
	assert.InDelta(t, 136, int(c.R), 2)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.R, c.B)
	assert.Equal(t, uint8(255), c.A)
}

func TestApplyGamma_PreservesExtremes(t *testing.T) {
	black := applyGamma(grayImage(0), 2.4)
	white := applyGamma(grayImage(255), 2.4)

	cb := color.RGBAModel.Convert(black.At(0, 0)).(color.RGBA)
	cw := color.RGBAModel.Convert(white.At(1, 1)).(color.RGBA)
	assert.Equal(t, uint8(0), cb.R)
	assert.Equal(t, uint8(255), cw.R)
}
