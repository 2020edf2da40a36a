package rexo_test

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"sync"
	"time"
)

// memoryStore is a TemplateStore that counts how often each path is read.
type memoryStore struct {
	mu    sync.Mutex
	files map[string]string
	errs  map[string]error
	reads map[string]int
}

func newMemoryStore(files map[string]string) *memoryStore {
	return &memoryStore{
		files: files,
		errs:  map[string]error{},
		reads: map[string]int{},
	}
}

func (s *memoryStore) ReadTemplate(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[path]++
	if err, ok := s.errs[path]; ok {
		return nil, err
	}
	contents, ok := s.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(contents), nil
}

func (s *memoryStore) readCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[path]
}

func (s *memoryStore) totalReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int
	for _, n := range s.reads {
		total += n
	}
	return total
}

// memoryData is a DataSource serving records keyed by "type/key", or just
// "type" for collections. Unknown records come back empty, the way a 404
// does.
type memoryData struct {
	mu      sync.Mutex
	records map[string]string
	errs    map[string]error
	calls   []string
}

func newMemoryData(records map[string]string) *memoryData {
	return &memoryData{
		records: records,
		errs:    map[string]error{},
	}
}

func (d *memoryData) FetchData(_ context.Context, resourceType, key string) (json.RawMessage, error) {
	id := resourceType
	if key != "" {
		id += "/" + key
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, id)
	if err, ok := d.errs[id]; ok {
		return nil, err
	}
	return json.RawMessage(d.records[id]), nil
}

func (d *memoryData) fetched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// barrier lets through callers only once a set number of them are waiting
// at the same time.
type barrier struct {
	wg   sync.WaitGroup
	done chan struct{}
}

var errNotConcurrent = errors.New("fetches did not all run at the same time")

func newBarrier(n int) *barrier {
	b := &barrier{done: make(chan struct{})}
	b.wg.Add(n)
	go func() {
		b.wg.Wait()
		close(b.done)
	}()
	return b
}

func (b *barrier) arrive(ctx context.Context) error {
	b.wg.Done()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errNotConcurrent
	}
}

type gatedStore struct {
	*memoryStore
	gate *barrier
}

func (s gatedStore) ReadTemplate(ctx context.Context, path string) ([]byte, error) {
	if err := s.gate.arrive(ctx); err != nil {
		return nil, err
	}
	return s.memoryStore.ReadTemplate(ctx, path)
}

type gatedData struct {
	*memoryData
	gate *barrier
}

func (d gatedData) FetchData(ctx context.Context, resourceType, key string) (json.RawMessage, error) {
	if err := d.gate.arrive(ctx); err != nil {
		return nil, err
	}
	return d.memoryData.FetchData(ctx, resourceType, key)
}

// blockingStore never returns until its context is done.
type blockingStore struct{}

func (blockingStore) ReadTemplate(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func jsonUnmarshal(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
