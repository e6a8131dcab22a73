package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"lessonloop/internal/domain"
)

// QuizLoader fetches a class's quizzes from the backing store.
type QuizLoader interface {
	ListForClass(ctx context.Context, classID string) ([]domain.Quiz, error)
}

// QuizCatalog caches each class's quiz list in Redis and falls back to a loader on cache miss.
// Lists are stored as JSON: SET class:{classID}:quizzes [...] EX ttl
// class:{classID}:quizzes:gen counts invalidations. A fill only lands when the
// counter still matches the value read before loading.
type QuizCatalog struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizCatalog(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCatalog {
	return &QuizCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCatalog) QuizzesForClass(ctx context.Context, classID string) ([]domain.Quiz, error) {
	key := c.key(classID)
	if quizzes, ok := c.cached(ctx, key); ok {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do(classID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quizzes, ok := c.cached(ctx, key); ok {
			return quizzes, nil
		}

		gen, genErr := c.generation(ctx, classID)

		quizzes, err := c.loader.ListForClass(ctx, classID)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			// best-effort fill; a failed write only costs a reload
			_ = c.fill(ctx, classID, gen, quizzes)
		}
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

// Invalidate drops the cached list so the next read reloads it. Loads already
// in flight will not write their list back.
func (c *QuizCatalog) Invalidate(ctx context.Context, classID string) error {
	c.sf.Forget(classID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(classID))
		pipe.Del(ctx, c.key(classID))
		return nil
	})
	return err
}

func (c *QuizCatalog) generation(ctx context.Context, classID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(classID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill stores quizzes unless the class was invalidated after gen was read.
func (c *QuizCatalog) fill(ctx context.Context, classID string, gen int64, quizzes []domain.Quiz) error {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(quizzes)
	if err != nil {
		return err
	}
	genKey := c.genKey(classID)
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(classID), raw, ttl)
			return nil
		})
		return err
	}, genKey)
}

func (c *QuizCatalog) cached(ctx context.Context, key string) ([]domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(raw, &quizzes); err != nil {
		return nil, false
	}
	return quizzes, true
}

func (c *QuizCatalog) key(classID string) string {
	return "class:" + classID + ":quizzes"
}

func (c *QuizCatalog) genKey(classID string) string {
	return c.key(classID) + ":gen"
}

func (c *QuizCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
