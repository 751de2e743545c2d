package canvas

import "math"

// Handle is one of the eight resize grips around a box.
type Handle string

// Resize handles.
const (
	HandleTopLeft     Handle = "tl"
	HandleTop         Handle = "t"
	HandleTopRight    Handle = "tr"
	HandleRight       Handle = "r"
	HandleBottomRight Handle = "br"
	HandleBottom      Handle = "b"
	HandleBottomLeft  Handle = "bl"
	HandleLeft        Handle = "l"
)

// Valid reports whether h names a known handle.
func (h Handle) Valid() bool {
	switch h {
	case HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
		HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft:
		return true
	}
	return false
}

func (h Handle) left() bool   { return h == HandleTopLeft || h == HandleBottomLeft || h == HandleLeft }
func (h Handle) right() bool  { return h == HandleTopRight || h == HandleBottomRight || h == HandleRight }
func (h Handle) top() bool    { return h == HandleTopLeft || h == HandleTopRight || h == HandleTop }
func (h Handle) bottom() bool { return h == HandleBottomLeft || h == HandleBottomRight || h == HandleBottom }

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// span is a box projected on one axis.
type span struct {
	start, end float64
}

// snapAxis aligns a segment [pos, pos+size) to the nearest edge of the given
// spans when it is closer than threshold. Candidates are checked in the order
// start-start, end-end, start-to-end, end-to-start; the smallest distance
// wins and ties keep the earlier candidate.
func snapAxis(pos, size float64, others []span, threshold float64) float64 {
	best, bestDist := pos, threshold
	try := func(target, dist float64) {
		if dist < bestDist {
			best, bestDist = target, dist
		}
	}
	for _, o := range others {
		try(o.start, math.Abs(pos-o.start))
		try(o.end-size, math.Abs(pos+size-o.end))
		try(o.end, math.Abs(pos-o.end))
		try(o.start-size, math.Abs(pos+size-o.start))
	}
	return best
}

// dragTo moves origin by (dx, dy) percent, keeps it on the canvas and snaps
// its edges to the other boxes.
func dragTo(origin Box, dx, dy float64, others []Box, threshold float64) (x, y float64) {
	x = clamp(origin.X+dx, 0, 100-origin.Width)
	y = clamp(origin.Y+dy, 0, 100-origin.Height)

	xs := make([]span, 0, len(others))
	ys := make([]span, 0, len(others))
	for _, o := range others {
		xs = append(xs, span{o.X, o.Right()})
		ys = append(ys, span{o.Y, o.Bottom()})
	}
	x = clamp(snapAxis(x, origin.Width, xs, threshold), 0, 100-origin.Width)
	y = clamp(snapAxis(y, origin.Height, ys, threshold), 0, 100-origin.Height)
	return x, y
}

// resizeTo applies a handle drag of (dx, dy) percent to origin. The edges
// opposite the handle stay where they were.
func resizeTo(origin Box, h Handle, dx, dy float64, l Limits) (x, y, w, ht float64) {
	x, y, w, ht = origin.X, origin.Y, origin.Width, origin.Height

	switch {
	case h.right():
		w = clamp(origin.Width+dx, l.MinWidth, 100-origin.X)
	case h.left():
		right := origin.Right()
		x = clamp(origin.X+dx, 0, right-l.MinWidth)
		w = right - x
	}
	switch {
	case h.bottom():
		ht = clamp(origin.Height+dy, l.MinHeight, 100-origin.Y)
	case h.top():
		bottom := origin.Bottom()
		y = clamp(origin.Y+dy, 0, bottom-l.MinHeight)
		ht = bottom - y
	}

	x, w = fit(x, w, l.MinWidth)
	y, ht = fit(y, ht, l.MinHeight)
	return x, y, w, ht
}

// fit forces a segment onto [0, 100] with at least min length.
func fit(pos, size, min float64) (float64, float64) {
	size = clamp(size, min, 100)
	pos = clamp(pos, 0, 100-size)
	return pos, size
}
