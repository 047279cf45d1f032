package engine

import (
	"math/rand"
)

// ClipPool partitions the ambiance catalog into usable and used entries.
// Every seeded entry is in exactly one of the two sets; Select moves an entry
// usable -> used and Release moves it back.
type ClipPool struct {
	rng   *rand.Rand
	order []*ClipEntry   // catalog order, used for stable weighted iteration
	used  map[*Clip]bool // membership for every seeded clip; true = used
	index map[*Clip]*ClipEntry
}

// NewClipPool creates an empty pool drawing from rng
func NewClipPool(rng *rand.Rand) *ClipPool {
	return &ClipPool{
		rng:   rng,
		used:  make(map[*Clip]bool),
		index: make(map[*Clip]*ClipEntry),
	}
}

// Seed resets the pool so that every entry is usable.
// Nil entries, entries without a clip and duplicate clips are skipped; the
// number skipped is returned.
func (p *ClipPool) Seed(entries []*ClipEntry) int {
	p.order = p.order[:0]
	p.used = make(map[*Clip]bool, len(entries))
	p.index = make(map[*Clip]*ClipEntry, len(entries))

	skipped := 0
	for _, e := range entries {
		if e == nil || e.Clip == nil {
			skipped++
			continue
		}
		if _, dup := p.index[e.Clip]; dup {
			skipped++
			continue
		}
		p.order = append(p.order, e)
		p.index[e.Clip] = e
		p.used[e.Clip] = false
	}
	return skipped
}

// Select draws a usable entry with probability proportional to its priority
// and moves it to used. It reports false when nothing is usable or when all
// usable entries have zero priority.
func (p *ClipPool) Select() (*ClipEntry, bool) {
	total := 0
	for _, e := range p.order {
		if !p.used[e.Clip] {
			total += weight(e)
		}
	}
	if total <= 0 {
		return nil, false
	}

	r := p.rng.Intn(total)
	for _, e := range p.order {
		if p.used[e.Clip] {
			continue
		}
		w := weight(e)
		if r < w {
			p.used[e.Clip] = true
			return e, true
		}
		r -= w
	}

	// unreachable while total matches the walk above
	return nil, false
}

// Release returns the entry for clip to the usable set.
// Unknown clips and clips that are already usable are ignored (false).
func (p *ClipPool) Release(clip *Clip) bool {
	if clip == nil {
		return false
	}
	inUse, known := p.used[clip]
	if !known || !inUse {
		return false
	}
	p.used[clip] = false
	return true
}

// IsUsed reports whether clip is currently assigned
func (p *ClipPool) IsUsed(clip *Clip) bool {
	return p.used[clip]
}

// Entry returns the seeded entry for clip
func (p *ClipPool) Entry(clip *Clip) (*ClipEntry, bool) {
	e, ok := p.index[clip]
	return e, ok
}

// Usable returns the usable entries in catalog order
func (p *ClipPool) Usable() []*ClipEntry {
	return p.filter(false)
}

// Used returns the used entries in catalog order
func (p *ClipPool) Used() []*ClipEntry {
	return p.filter(true)
}

// Len returns the number of seeded entries
func (p *ClipPool) Len() int {
	return len(p.order)
}

// Counts returns the sizes of the usable and used sets
func (p *ClipPool) Counts() (usable, used int) {
	for _, e := range p.order {
		if p.used[e.Clip] {
			used++
		} else {
			usable++
		}
	}
	return usable, used
}

func (p *ClipPool) filter(used bool) []*ClipEntry {
	out := make([]*ClipEntry, 0, len(p.order))
	for _, e := range p.order {
		if p.used[e.Clip] == used {
			out = append(out, e)
		}
	}
	return out
}

func weight(e *ClipEntry) int {
	if e.Priority < 0 {
		return 0
	}
	return e.Priority
}
