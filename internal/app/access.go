package app

import (
	"context"

	"lessonloop/internal/domain"
)

var (
	errNotClassTeacher = domain.Forbidden("Not authorized: you are not the teacher of this class")
	errNotClassMember  = domain.Forbidden("Not authorized: you are not a member of this class")
	errTeachersOnly    = domain.Forbidden("Not authorized as a teacher")
	errStudentsOnly    = domain.Forbidden("Not authorized as a student")
)

func requireRole(user domain.User, role domain.Role) error {
	if user.Role == role {
		return nil
	}
	if role == domain.RoleTeacher {
		return errTeachersOnly
	}
	return errStudentsOnly
}

// ownedClass loads a class the requester teaches.
func ownedClass(ctx context.Context, classes ClassStore, requester domain.User, classID string) (domain.Class, error) {
	class, err := classes.GetClass(ctx, classID)
	if err != nil {
		return domain.Class{}, err
	}
	if !class.IsTeacher(requester.ID) {
		return domain.Class{}, errNotClassTeacher
	}
	return class, nil
}

// memberClass loads a class the requester teaches or attends.
func memberClass(ctx context.Context, classes ClassStore, requester domain.User, classID string) (domain.Class, error) {
	class, err := classes.GetClass(ctx, classID)
	if err != nil {
		return domain.Class{}, err
	}
	if !class.IsMember(requester.ID) {
		return domain.Class{}, errNotClassMember
	}
	return class, nil
}

// enrolledClass loads a class the requester attends as a student.
func enrolledClass(ctx context.Context, classes ClassStore, requester domain.User, classID string) (domain.Class, error) {
	if err := requireRole(requester, domain.RoleStudent); err != nil {
		return domain.Class{}, err
	}
	class, err := classes.GetClass(ctx, classID)
	if err != nil {
		return domain.Class{}, err
	}
	if !class.HasStudent(requester.ID) {
		return domain.Class{}, errNotClassMember
	}
	return class, nil
}

// roster resolves the class's students in roster order. Students without a
// profile keep their id with empty name and email.
func roster(ctx context.Context, users UserStore, class domain.Class) ([]domain.User, error) {
	found, err := users.GetUsers(ctx, class.StudentIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]domain.User, 0, len(class.StudentIDs))
	for _, id := range class.StudentIDs {
		if u, ok := byID[id]; ok {
			out = append(out, u)
			continue
		}
		out = append(out, domain.User{ID: id, Role: domain.RoleStudent})
	}
	return out, nil
}

func quizIDs(quizzes []domain.Quiz) []string {
	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}
	return ids
}

// StudentSummary is the public part of a student profile.
type StudentSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func summarize(u domain.User) StudentSummary {
	return StudentSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
