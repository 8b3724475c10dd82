package photokit

import "math"

// sampleBilinear samples p at normalized coordinates (u, v), (0,0) being the
// top-left corner, with clamp-to-edge addressing. It matches a linear
// filtering GPU sampler: texel centres sit at (i+0.5)/size.
func sampleBilinear(p *Pixmap, u, v float64) (r, g, b, a uint8) {
	w, h := p.width, p.height
	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	x0 = clampInt(x0, 0, w-1)
	y0 = clampInt(y0, 0, h-1)

	stride := w * 4
	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4
	d := p.data

	var out [4]uint8
	for c := range 4 {
		top := lerp(float64(d[i00+c]), float64(d[i10+c]), tx)
		bot := lerp(float64(d[i01+c]), float64(d[i11+c]), tx)
		out[c] = uint8(math.Round(clampFloat(lerp(top, bot, ty), 0, 255)))
	}
	return out[0], out[1], out[2], out[3]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
