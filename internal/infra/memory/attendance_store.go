package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// AttendanceStore keeps one register per (class, date). Re-taking a date
// replaces the records and keeps the original id.
type AttendanceStore struct {
	mu       sync.RWMutex
	registry map[string]domain.Attendance
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{registry: make(map[string]domain.Attendance)}
}

func (s *AttendanceStore) UpsertAttendance(_ context.Context, att domain.Attendance) (domain.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := att.ClassID + "/" + att.Date
	if prev, ok := s.registry[key]; ok {
		att.ID = prev.ID
	}
	att.Records = append([]domain.AttendanceRecord{}, att.Records...)
	s.registry[key] = att
	return att, nil
}

func (s *AttendanceStore) GetAttendance(_ context.Context, classID, date string) (domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	att, ok := s.registry[classID+"/"+date]
	if !ok {
		return domain.Attendance{}, domain.ErrAttendanceNotFound
	}
	att.Records = append([]domain.AttendanceRecord{}, att.Records...)
	return att, nil
}
