package service

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource is the source of wager outcomes and giveaway draws
type RandomSource interface {
	// Intn returns a uniform value in [0, n). n must be positive.
	Intn(n int) int
}

type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom returns a goroutine-safe source with a fixed seed
func NewSeededRandom(seed int64) RandomSource {
	return &lockedRandom{r: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a goroutine-safe source seeded from the current time
func NewRandom() RandomSource {
	return NewSeededRandom(time.Now().UnixNano())
}

func (l *lockedRandom) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
