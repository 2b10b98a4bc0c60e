package skeleton

import "fmt"

type AspectRatio string

const (
	Ratio16x9 AspectRatio = "16:9"
	Ratio9x16 AspectRatio = "9:16"
	Ratio1x1  AspectRatio = "1:1"
	Ratio4x3  AspectRatio = "4:3"
	Ratio3x4  AspectRatio = "3:4"
)

var resolutions = map[AspectRatio][2]int{
	Ratio16x9: {2560, 1440},
	Ratio9x16: {1440, 2560},
	Ratio1x1:  {2048, 2048},
	Ratio4x3:  {2304, 1728},
	Ratio3x4:  {1728, 2304},
}

// Sizes used for the reference sheets generated before any scene image.
const (
	CharacterSheetSize = "1728x2304"
	SceneDesignSize    = "2560x1440"
)

func (r AspectRatio) Valid() bool {
	_, ok := resolutions[r]
	return ok
}

// OrDefault returns r, or 16:9 when r is empty or unknown.
func (r AspectRatio) OrDefault() AspectRatio {
	if r.Valid() {
		return r
	}
	return Ratio16x9
}

// Resolution is the image-generation size for r, e.g. "2560x1440".
func (r AspectRatio) Resolution() string {
	wh := resolutions[r.OrDefault()]
	return fmt.Sprintf("%dx%d", wh[0], wh[1])
}

// CanvasSize scales r so that its shorter side equals shorter. Both sides are
// rounded to even numbers because the H.264 encoder rejects odd dimensions.
func (r AspectRatio) CanvasSize(shorter int) (width, height int) {
	wh := resolutions[r.OrDefault()]
	w, h := float64(wh[0]), float64(wh[1])
	if w <= h {
		return even(float64(shorter)), even(float64(shorter) * h / w)
	}
	return even(float64(shorter) * w / h), even(float64(shorter))
}

func even(v float64) int {
	n := int(v + 0.5)
	if n%2 == 1 {
		n++
	}
	return n
}
