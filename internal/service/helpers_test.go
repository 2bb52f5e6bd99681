package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/db"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/session"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/tokens"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: ev})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type countingRecorder struct {
	mu    sync.Mutex
	cache map[string]int
	auth  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{cache: map[string]int{}, auth: map[string]int{}}
}

func (r *countingRecorder) AuthOperation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.auth[op+"/"+result]++
}

func (r *countingRecorder) FeaturedCache(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[result]++
}

func (r *countingRecorder) HTTPStatus(int) {}

var _ metrics.Recorder = (*countingRecorder)(nil)

type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: map[string][]byte{}}
}

func (m *memoryImages) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "http://images.test/" + key, nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

var _ storage.ObjectStore = (*memoryImages)(nil)

type fixture struct {
	repo     *repo.GormRepo
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	sessions *session.Store
	codec    *tokens.Codec
	clock    *time.Time
	events   *recordingPublisher
	metrics  *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.OpenTest(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Now().Truncate(time.Second)
	clock := &now
	codec, err := tokens.NewCodec([]byte("access-secret"), []byte("refresh-secret"),
		tokens.WithClock(func() time.Time { return *clock }))
	require.NoError(t, err)

	return &fixture{
		repo:     repo.New(gdb),
		mr:       mr,
		rdb:      rdb,
		sessions: session.NewStore(rdb, session.DefaultTTL),
		codec:    codec,
		clock:    clock,
		events:   &recordingPublisher{},
		metrics:  newCountingRecorder(),
	}
}

func (f *fixture) auth() *AuthService {
	return &AuthService{
		Users:    f.repo,
		Sessions: f.sessions,
		Tokens:   f.codec,
		Events:   f.events,
		Metrics:  f.metrics,
	}
}
