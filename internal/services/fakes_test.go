package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"audit-desk/internal/entities"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/filestorage"
	"audit-desk/pkg/types"
)

var errBoom = errors.New("boom")

type fakeProjectRepo struct {
	mu        sync.Mutex
	rows      map[uint64]entities.Project
	nextID    uint64
	createErr error
	updateErr error
	deleteErr error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{rows: make(map[uint64]entities.Project), nextID: 1}
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *entities.Project) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	id := r.nextID
	r.nextID++
	cp := *p
	cp.ID = id
	cp.LastUpdated = time.Now()
	r.rows[id] = cp
	return id, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, p *entities.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.rows[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *p
	cp.LastUpdated = time.Now()
	r.rows[p.ID] = cp
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, id uint64) (*entities.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProjectRepo) List(ctx context.Context, filter types.Filter) ([]entities.Project, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Project, 0, len(r.rows))
	for _, p := range r.rows {
		if y, ok := filter.Filter["year"].(int); ok && p.Year != y {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeProjectRepo) Years(ctx context.Context) ([]int, error) {
	return []int{2025}, nil
}

type fakeAttachmentRepo struct {
	mu     sync.Mutex
	rows   map[uint64]entities.Attachment
	nextID uint64
	// createFailOn - номер вызова Create (с 1), который вернёт ошибку
	createFailOn int
	createCalls  int
	deleteErr    error
	findErr      error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{rows: make(map[uint64]entities.Attachment), nextID: 100}
}

func (r *fakeAttachmentRepo) seed(a entities.Attachment) entities.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.nextID
		r.nextID++
	}
	r.rows[a.ID] = a
	return a
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, a *entities.Attachment) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createFailOn == r.createCalls {
		return 0, errBoom
	}
	cp := *a
	cp.ID = r.nextID
	r.nextID++
	cp.UploadedAt = time.Now()
	r.rows[cp.ID] = cp
	return cp.ID, nil
}

func (r *fakeAttachmentRepo) Restore(ctx context.Context, a entities.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID]; ok {
		return errors.New("duplicate id")
	}
	r.rows[a.ID] = a
	return nil
}

func (r *fakeAttachmentRepo) sorted(match func(entities.Attachment) bool) []entities.Attachment {
	out := make([]entities.Attachment, 0)
	for _, a := range r.rows {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeAttachmentRepo) FindByProjectID(ctx context.Context, projectID uint64) ([]entities.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.sorted(func(a entities.Attachment) bool { return a.ProjectID == projectID }), nil
}

func (r *fakeAttachmentRepo) FindByProjectIDs(ctx context.Context, ids []uint64) ([]entities.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return r.sorted(func(a entities.Attachment) bool { return set[a.ProjectID] }), nil
}

func (r *fakeAttachmentRepo) FindSuperseded(ctx context.Context, projectID uint64, slot string, newerThanID uint64) ([]entities.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a entities.Attachment) bool {
		return a.ProjectID == projectID && a.Slot.Valid && a.Slot.String == slot && a.ID < newerThanID
	}), nil
}

func (r *fakeAttachmentRepo) FindByPath(ctx context.Context, path string) (*entities.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Path == path {
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeAttachmentRepo) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.rows[id]; ok {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeAttachmentRepo) DeleteByProjectID(ctx context.Context, projectID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	var n int64
	for id, a := range r.rows {
		if a.ProjectID == projectID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeAttachmentRepo) forSlot(projectID uint64, slot string) []entities.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a entities.Attachment) bool {
		return a.ProjectID == projectID && a.Slot.String == slot
	})
}

func (r *fakeAttachmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	removeErr error
	signErr   error
	removed   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if _, ok := s.objects[path]; ok {
		return filestorage.ErrObjectExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[path] = data
	return nil
}

func (s *fakeStorage) Remove(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, paths...)
	if s.removeErr != nil {
		return s.removeErr
	}
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

func (s *fakeStorage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://blob.test/" + path + "?ttl=" + ttl.String(), nil
}

func (s *fakeStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
