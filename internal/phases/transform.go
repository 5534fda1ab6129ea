package phases

import (
	"image"
	"image/color"
	"math"
)

// applyGamma maps a raw capture through a monitor transfer curve, simulating
// how the panel would display it. Gamma 1.0 (or 0) is the identity.
func applyGamma(src image.Image, gamma float64) image.Image {
	if gamma <= 0 || gamma == 1.0 {
		return src
	}

	// Lookup table over the 8-bit range; one pow per level, not per pixel.
	var lut [256]uint8
	inv := 1.0 / gamma
	for i := range lut {
		lut[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, inv)))
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			dst.SetRGBA(x, y, color.RGBA{
				R: lut[c.R],
				G: lut[c.G],
				B: lut[c.B],
				A: c.A,
			})
		}
	}
	return dst
}
