package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// ClassStore is an in-memory implementation of app.ClassStore.
type ClassStore struct {
	mu      sync.RWMutex
	order   []string
	classes map[string]*domain.Class
	codes   map[string]string
}

func NewClassStore() *ClassStore {
	return &ClassStore{
		classes: make(map[string]*domain.Class),
		codes:   make(map[string]string),
	}
}

func (s *ClassStore) CreateClass(_ context.Context, class domain.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[class.InviteCode]; taken {
		return domain.ErrInviteCodeTaken
	}
	c := cloneClass(class)
	s.classes[c.ID] = &c
	s.codes[c.InviteCode] = c.ID
	s.order = append(s.order, c.ID)
	return nil
}

func (s *ClassStore) GetClass(_ context.Context, classID string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[classID]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return cloneClass(*c), nil
}

func (s *ClassStore) FindByInviteCode(_ context.Context, code string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return cloneClass(*s.classes[id]), nil
}

func (s *ClassStore) ListForTeacher(_ context.Context, teacherID string) ([]domain.Class, error) {
	return s.filter(func(c *domain.Class) bool { return c.TeacherID == teacherID }), nil
}

func (s *ClassStore) ListForStudent(_ context.Context, studentID string) ([]domain.Class, error) {
	return s.filter(func(c *domain.Class) bool { return c.HasStudent(studentID) }), nil
}

func (s *ClassStore) filter(keep func(*domain.Class) bool) []domain.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Class, 0)
	for _, id := range s.order {
		if c := s.classes[id]; keep(c) {
			out = append(out, cloneClass(*c))
		}
	}
	return out
}

func (s *ClassStore) AddStudent(_ context.Context, classID, studentID string) (domain.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[classID]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	if !c.HasStudent(studentID) {
		c.StudentIDs = append(c.StudentIDs, studentID)
	}
	return cloneClass(*c), nil
}

func (s *ClassStore) RenameClass(_ context.Context, classID, name string) (domain.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[classID]
	if !ok {
		return domain.Class{}, domain.ErrClassNotFound
	}
	c.Name = name
	return cloneClass(*c), nil
}

func cloneClass(c domain.Class) domain.Class {
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return c
}
