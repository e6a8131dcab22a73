package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/domain"
)

const attendanceDateLayout = "2006-01-02"

// AttendanceEntry is one record joined with the student's profile.
type AttendanceEntry struct {
	Student StudentSummary          `json:"student"`
	Status  domain.AttendanceStatus `json:"status"`
}

// AttendanceSheet is a register ready to display.
type AttendanceSheet struct {
	ID        string            `json:"_id"`
	ClassID   string            `json:"class"`
	Date      string            `json:"date"`
	Records   []AttendanceEntry `json:"records"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type AttendanceService struct {
	classes    ClassStore
	users      UserStore
	attendance AttendanceStore
	now        func() time.Time
}

func NewAttendanceService(stores Stores) *AttendanceService {
	return &AttendanceService{
		classes:    stores.Classes,
		users:      stores.Users,
		attendance: stores.Attendance,
		now:        time.Now,
	}
}

// Take records the register for a date, replacing any earlier register for
// the same class and date.
func (s *AttendanceService) Take(ctx context.Context, teacher domain.User, classID, date string, records []domain.AttendanceRecord) (domain.Attendance, error) {
	class, err := ownedClass(ctx, s.classes, teacher, classID)
	if err != nil {
		return domain.Attendance{}, err
	}
	if _, err := time.Parse(attendanceDateLayout, date); err != nil {
		return domain.Attendance{}, domain.Invalid("Date must be YYYY-MM-DD")
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if !class.HasStudent(r.StudentID) {
			return domain.Attendance{}, domain.Invalid(fmt.Sprintf("Student %s is not enrolled in this class", r.StudentID))
		}
		if seen[r.StudentID] {
			return domain.Attendance{}, domain.Invalid(fmt.Sprintf("Student %s is listed twice", r.StudentID))
		}
		seen[r.StudentID] = true
		if r.Status != domain.Present && r.Status != domain.Absent {
			return domain.Attendance{}, domain.Invalid("Status must be Present or Absent")
		}
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}
	return s.attendance.UpsertAttendance(ctx, domain.Attendance{
		ID:        uuid.NewString(),
		ClassID:   class.ID,
		Date:      date,
		Records:   records,
		UpdatedAt: s.now().UTC(),
	})
}

// Get returns the register of a date with student names resolved.
func (s *AttendanceService) Get(ctx context.Context, teacher domain.User, classID, date string) (AttendanceSheet, error) {
	if _, err := ownedClass(ctx, s.classes, teacher, classID); err != nil {
		return AttendanceSheet{}, err
	}
	att, err := s.attendance.GetAttendance(ctx, classID, date)
	if err != nil {
		return AttendanceSheet{}, err
	}
	ids := make([]string, 0, len(att.Records))
	for _, r := range att.Records {
		ids = append(ids, r.StudentID)
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return AttendanceSheet{}, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	sheet := AttendanceSheet{
		ID:        att.ID,
		ClassID:   att.ClassID,
		Date:      att.Date,
		Records:   make([]AttendanceEntry, 0, len(att.Records)),
		UpdatedAt: att.UpdatedAt,
	}
	for _, r := range att.Records {
		u, ok := byID[r.StudentID]
		if !ok {
			u = domain.User{ID: r.StudentID}
		}
		sheet.Records = append(sheet.Records, AttendanceEntry{Student: summarize(u), Status: r.Status})
	}
	return sheet, nil
}
