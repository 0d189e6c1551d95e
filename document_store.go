package omnirag

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"
)

// DocumentStore holds uploaded documents in memory, in upload order.
// It is safe for concurrent use; all mutations are serialized.
type DocumentStore struct {
	mu      sync.RWMutex
	docs    []Document
	version uint64

	newID       func() string
	now         func() time.Time
	maxFileSize int64
}

// StoreOption configures a [DocumentStore].
type StoreOption func(*DocumentStore)

// WithDocumentIDs sets the ID generator for new documents.
func WithDocumentIDs(newID func() string) StoreOption {
	return func(s *DocumentStore) { s.newID = newID }
}

// WithMaxFileSize rejects files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) StoreOption {
	return func(s *DocumentStore) { s.maxFileSize = n }
}

// WithStoreClock sets the clock used for Document.AddedAt.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *DocumentStore) { s.now = now }
}

// NewDocumentStore creates an empty store.
func NewDocumentStore(opts ...StoreOption) *DocumentStore {
	s := &DocumentStore{
		newID: sequentialIDs("doc"),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddResult reports the outcome of a batch upload.
type AddResult struct {
	Added  []Document
	Failed []*FileError
}

// Add reads files concurrently and appends the successfully read ones in
// input order, regardless of the order in which reads complete. A failed
// read is reported in AddResult.Failed and does not abort the batch.
func (s *DocumentStore) Add(ctx context.Context, files []File) AddResult {
	type outcome struct {
		doc Document
		err error
	}
	results := make([]outcome, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := s.read(ctx, f)
			results[i] = outcome{doc: doc, err: err}
		}()
	}
	wg.Wait()

	var res AddResult
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range results {
		if r.err != nil {
			res.Failed = append(res.Failed, &FileError{Name: files[i].Name(), Err: r.err})
			continue
		}
		r.doc.ID = s.newID()
		r.doc.AddedAt = s.now()
		s.docs = append(s.docs, r.doc)
		res.Added = append(res.Added, r.doc)
	}
	if len(res.Added) > 0 {
		s.version++
	}
	return res
}

func (s *DocumentStore) read(ctx context.Context, f File) (Document, error) {
	if s.maxFileSize > 0 && f.Size() > s.maxFileSize {
		return Document{}, fmt.Errorf("%d bytes exceeds %d: %w", f.Size(), s.maxFileSize, ErrFileTooLarge)
	}
	data, err := f.Read(ctx)
	if err != nil {
		return Document{}, err
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return Document{}, fmt.Errorf("%d bytes exceeds %d: %w", len(data), s.maxFileSize, ErrFileTooLarge)
	}
	if !utf8.Valid(data) {
		return Document{}, ErrUnsupportedContent
	}
	content := string(data)
	size := f.Size()
	if size <= 0 {
		size = int64(len(data))
	}
	return Document{
		Name:      f.Name(),
		Content:   content,
		MediaType: f.MediaType(),
		Size:      size,
		Tokens:    EstimateTokens(content),
	}, nil
}

// Remove deletes the document with the given ID. It reports whether a
// document was removed; removing an unknown ID is a no-op.
func (s *DocumentStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.docs, func(d Document) bool { return d.ID == id })
	if i < 0 {
		return false
	}
	s.docs = slices.Delete(s.docs, i, i+1)
	s.version++
	return true
}

// Get returns the document with the given ID.
func (s *DocumentStore) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// Documents returns a copy of the stored documents in upload order.
func (s *DocumentStore) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs)
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// TotalTokens returns the sum of the documents' estimated token counts.
func (s *DocumentStore) TotalTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, d := range s.docs {
		total += d.Tokens
	}
	return total
}

// TotalSize returns the sum of the documents' byte sizes.
func (s *DocumentStore) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, d := range s.docs {
		total += d.Size
	}
	return total
}

// Version increases on every mutation of the document set.
func (s *DocumentStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the documents together with the version they belong to.
func (s *DocumentStore) Snapshot() ([]Document, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs), s.version
}
