package canvas

// ReferenceWidth is the logical width in pixels the canvas is designed at.
const ReferenceWidth = 900.0

// AspectRatio is the width to height ratio of the canvas area (ISO A-series).
const AspectRatio = 1.414

// DisplayScale returns the zoom factor for a container of the given width:
// narrower containers scale the design down, wider ones never scale it up.
func DisplayScale(containerWidth float64) float64 {
	if containerWidth <= 0 || containerWidth >= ReferenceWidth {
		return 1
	}
	return containerWidth / ReferenceWidth
}
