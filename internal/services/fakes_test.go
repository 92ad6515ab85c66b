package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/arzan03/codedrop/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory CodeStore. ConsumeUse holds the lock across the
// check and the decrement, matching the atomicity the Mongo implementation
// gets from findAndModify.
type fakeStore struct {
	mu   sync.Mutex
	recs map[string]*models.Code
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[string]*models.Code)}
}

func (f *fakeStore) Exists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recs[code]
	return ok, nil
}

func (f *fakeStore) Insert(_ context.Context, rec *models.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[rec.Code]; ok {
		return models.ErrCodeTaken
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	cp := *rec
	f.recs[rec.Code] = &cp
	return nil
}

func (f *fakeStore) FindByCode(_ context.Context, code string) (*models.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[code]
	if !ok {
		return nil, models.ErrCodeNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) ConsumeUse(_ context.Context, code string, now time.Time) (*models.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[code]
	if !ok {
		return nil, models.ErrCodeNotFound
	}
	if !rec.Redeemable(now) {
		return nil, models.ErrCodeExpired
	}
	if rec.Count > 0 {
		rec.Count--
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) ListExpired(_ context.Context, now time.Time) ([]models.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Code
	for _, rec := range f.recs {
		if !now.Before(rec.ExpTime) || rec.Count == 0 {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, rec := range f.recs {
		if rec.ID == id {
			delete(f.recs, code)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) DeleteByCode(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[code]; !ok {
		return models.ErrCodeNotFound
	}
	delete(f.recs, code)
	return nil
}

func (f *fakeStore) List(_ context.Context, page, size int64) ([]models.Code, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Code
	for _, rec := range f.recs {
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := (page - 1) * size
	if start >= int64(len(all)) {
		return nil, int64(len(all)), nil
	}
	end := start + size
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeStore) get(code string) *models.Code {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[code]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func (f *fakeStore) put(rec *models.Code) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	cp := *rec
	f.recs[rec.Code] = &cp
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

// fakeStorage is an in-memory blob backend. Remove on a missing object
// succeeds, like the real backend.
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	removed     []string
	failPresign bool
	saved       chan string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		saved:   make(chan string, 16),
	}
}

func (f *fakeStorage) Save(_ context.Context, object string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[object] = data
	f.mu.Unlock()
	f.saved <- object
	return nil
}

func (f *fakeStorage) PresignedURL(_ context.Context, object, _ string) (string, error) {
	if f.failPresign {
		return "", io.ErrUnexpectedEOF
	}
	return "https://blobs.test/" + object, nil
}

func (f *fakeStorage) Remove(_ context.Context, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, object)
	f.removed = append(f.removed, object)
	return nil
}

func (f *fakeStorage) removeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.removed)
}
