package parallel

// minBandRows keeps bands large enough that scheduling stays cheap next to
// the per-pixel work.
const minBandRows = 16

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands splits height rows into at most n contiguous bands of nearly equal
// size. Every row belongs to exactly one band.
func Bands(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	n = max(min(n, (height+minBandRows-1)/minBandRows), 1)

	bands := make([]Band, 0, n)
	base, extra := height/n, height%n
	y := 0
	for i := range n {
		rows := base
		if i < extra {
			rows++
		}
		bands = append(bands, Band{Y0: y, Y1: y + rows})
		y += rows
	}
	return bands
}

// ForRows runs fn over the rows [0, height) split into bands on the pool,
// and returns when every band is done.
func (p *WorkerPool) ForRows(height int, fn func(b Band)) {
	bands := Bands(height, p.workers*2)
	if len(bands) == 1 {
		fn(bands[0])
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b) }
	}
	p.ExecuteAll(work)
}
