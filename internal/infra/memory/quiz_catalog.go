package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lessonloop/internal/domain"
)

// QuizLoader fetches a class's quizzes from the backing store.
type QuizLoader interface {
	ListForClass(ctx context.Context, classID string) ([]domain.Quiz, error)
}

// QuizCatalog caches each class's quiz list with TTL to avoid repeated store hits.
type QuizCatalog struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuizzes
	gen   map[string]uint64
}

type cachedQuizzes struct {
	quizzes   []domain.Quiz
	expiresAt time.Time
}

func NewQuizCatalog(loader QuizLoader, ttl time.Duration) *QuizCatalog {
	return &QuizCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuizzes),
		gen:    make(map[string]uint64),
	}
}

func (c *QuizCatalog) QuizzesForClass(ctx context.Context, classID string) ([]domain.Quiz, error) {
	if quizzes, ok := c.lookup(classID); ok {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do(classID, func() (interface{}, error) {
		if quizzes, ok := c.lookup(classID); ok {
			return quizzes, nil
		}

		c.mu.RLock()
		gen := c.gen[classID]
		c.mu.RUnlock()

		quizzes, err := c.loader.ListForClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			// an Invalidate during the load makes this list stale
			if c.gen[classID] == gen {
				c.cache[classID] = cachedQuizzes{quizzes: quizzes, expiresAt: c.clock().Add(ttl)}
			}
			c.mu.Unlock()
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuizzes(result.([]domain.Quiz)), nil
}

func (c *QuizCatalog) lookup(classID string) ([]domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[classID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return copyQuizzes(entry.quizzes), true
}

// Invalidate drops the cached list so the next read reloads it.
func (c *QuizCatalog) Invalidate(_ context.Context, classID string) error {
	c.mu.Lock()
	delete(c.cache, classID)
	c.gen[classID]++
	c.mu.Unlock()
	c.sf.Forget(classID)
	return nil
}

func (c *QuizCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyQuizzes(quizzes []domain.Quiz) []domain.Quiz {
	out := make([]domain.Quiz, len(quizzes))
	for i, q := range quizzes {
		out[i] = cloneQuiz(q)
	}
	return out
}
