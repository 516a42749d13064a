package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danmuck/cortex/internal/journal"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds dials and reads so a stalled server fails fast.
const DefaultTimeout = 200 * time.Millisecond

// Journal implements journal.Journal on a capped Redis list.
type Journal struct {
	client *backend.Client
	prefix string
	maxLen int64
}

type Option func(*Journal)

// WithPrefix sets the key prefix; the list lives at <prefix>journal.
func WithPrefix(prefix string) Option {
	return func(j *Journal) {
		j.prefix = prefix
	}
}

// WithMaxLen caps the list length. Zero keeps everything.
func WithMaxLen(n int64) Option {
	return func(j *Journal) {
		j.maxLen = n
	}
}

// New dials a Redis journal. Commands are not retried and honor ctx deadlines.
func New(address, password string, db int, opts ...Option) *Journal {
	rdb := backend.NewClient(&backend.Options{
		Addr:                  address,
		Password:              password,
		DB:                    db,
		DialTimeout:           DefaultTimeout,
		ReadTimeout:           DefaultTimeout,
		WriteTimeout:          DefaultTimeout,
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a journal from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		prefix: "cortex:",
		maxLen: int64(journal.DefaultCapacity),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) key() string {
	return j.prefix + "journal"
}

func (j *Journal) seqKey() string {
	return j.prefix + "journal:seq"
}

// Append stamps e with a Redis-side sequence and pushes it to the list.
func (j *Journal) Append(ctx context.Context, e journal.Entry) error {
	seq, err := j.client.Incr(ctx, j.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate journal seq: %w", err)
	}
	e.Seq = uint64(seq)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := j.client.Pipeline()
	pipe.RPush(ctx, j.key(), data)
	if j.maxLen > 0 {
		pipe.LTrim(ctx, j.key(), -j.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// List returns entries oldest first.
func (j *Journal) List(ctx context.Context) ([]journal.Entry, error) {
	raw, err := j.client.LRange(ctx, j.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	out := make([]journal.Entry, 0, len(raw))
	for _, item := range raw {
		var e journal.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Close closes the redis client.
func (j *Journal) Close() error {
	return j.client.Close()
}

var _ journal.Journal = (*Journal)(nil)
