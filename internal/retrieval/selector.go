package retrieval

import "sort"

// Reference selection defaults. The margin and pool bounds are tunable
// through SelectorConfig; these are the shipped values.
const (
	defaultReferencePoolSize = 5
	defaultEarlyLessonMax    = 2
	defaultEarlyLessonMargin = 0.08
)

// SelectorConfig tunes reference selection. The zero value selects the
// shipped defaults.
type SelectorConfig struct {
	// PoolSize bounds how many master chunks are considered at all.
	PoolSize int
	// EarlyLessonMax is the highest lesson number still counted as
	// foundational material.
	EarlyLessonMax int
	// EarlyLessonMargin is how close (in score) the best foundational chunk
	// must be to the top-ranked chunk for the foundational preference to
	// displace it.
	EarlyLessonMargin float64
}

func (c SelectorConfig) withDefaults() SelectorConfig {
	if c.PoolSize <= 0 {
		c.PoolSize = defaultReferencePoolSize
	}
	if c.EarlyLessonMax <= 0 {
		c.EarlyLessonMax = defaultEarlyLessonMax
	}
	if c.EarlyLessonMargin <= 0 {
		c.EarlyLessonMargin = defaultEarlyLessonMargin
	}
	return c
}

// Selector picks a bounded set of master-chunk citations for a reply.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector returns a Selector with the given tuning, falling back to
// defaults for zero fields.
func NewSelector(cfg SelectorConfig) *Selector {
	return &Selector{cfg: cfg.withDefaults()}
}

// Select picks at most limit chunks from the master pool. Chunks are ranked by
// score when every chunk carries a valid similarity; otherwise retrieval
// order is preserved rather than inventing a ranking. With preferFoundational set, the pool is
// restricted to early lessons unless the top-ranked chunk clearly outranks
// the best foundational one.
func (s *Selector) Select(master []Chunk, limit int, preferFoundational bool) []Chunk {
	if limit <= 0 || len(master) == 0 {
		return nil
	}

	pool := master
	if len(pool) > s.cfg.PoolSize {
		pool = pool[:s.cfg.PoolSize]
	}

	ranked := make([]Chunk, len(pool))
	copy(ranked, pool)
	usable := scoresUsable(ranked)
	if usable {
		sort.SliceStable(ranked, func(i, j int) bool {
			return *ranked[i].Score > *ranked[j].Score
		})
	}

	if preferFoundational && !s.isFoundational(ranked[0]) {
		foundational := s.foundationalOnly(ranked)
		if len(foundational) > 0 {
			if !usable {
				ranked = foundational
			} else if best := foundational[0].Score; best != nil && ranked[0].Score != nil &&
				*ranked[0].Score-*best <= s.cfg.EarlyLessonMargin {
				ranked = foundational
			}
		}
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (s *Selector) isFoundational(c Chunk) bool {
	return c.LessonNumber <= s.cfg.EarlyLessonMax
}

func (s *Selector) foundationalOnly(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if s.isFoundational(c) {
			out = append(out, c)
		}
	}
	return out
}

// scoresUsable reports whether the pool's scores can drive ranking: every
// chunk must carry a score inside [0,1]. A pool with missing or out-of-range
// scores keeps its retrieval order instead.
func scoresUsable(chunks []Chunk) bool {
	for _, c := range chunks {
		if c.Score == nil || *c.Score < 0 || *c.Score > 1 {
			return false
		}
	}
	return len(chunks) > 0
}
