package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ecom/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recorder is a metrics.Recorder that remembers what it was told.
type recorder struct {
	mu        sync.Mutex
	hits      map[string]int
	misses    map[string]int
	errors    map[string]int
	evictions map[string]int
	rejected  []string
	denied    []int
}

func (r *recorder) count(m *map[string]int, region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[region]++
}

func (r *recorder) RecordCacheHit(region string)      { r.count(&r.hits, region) }
func (r *recorder) RecordCacheMiss(region string)     { r.count(&r.misses, region) }
func (r *recorder) RecordCacheError(region string)    { r.count(&r.errors, region) }
func (r *recorder) RecordCacheEviction(region string) { r.count(&r.evictions, region) }

func (r *recorder) RecordTokenRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
}

func (r *recorder) RecordAccessDenied(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = append(r.denied, status)
}

var errStoreDown = errors.New("connection refused")

// brokenStore fails every operation, like a cache server that went away.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (brokenStore) Delete(context.Context, ...string) error            { return errStoreDown }
func (brokenStore) DeletePrefix(context.Context, string) (int, error) { return 0, errStoreDown }
func (brokenStore) Ping(context.Context) error                         { return errStoreDown }
func (brokenStore) Close() error                                       { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })
	return db
}
