package service

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrUsernameTaken    = errors.New("parent username is already in use")
)

// StudentInput is a student as sent by the back office. ParentPassword is
// only set when the portal password changes.
type StudentInput struct {
	domain.Student
	ParentPassword string `json:"parentPassword,omitempty"`
}

// RosterService manages students, including their parent portal credentials.
type RosterService interface {
	ListStudents(ctx context.Context) []domain.Student
	GetStudent(ctx context.Context, id string) (domain.Student, error)
	CreateStudent(ctx context.Context, in StudentInput) (domain.Student, error)
	UpdateStudent(ctx context.Context, id string, in StudentInput) (domain.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

type rosterService struct {
	students *state.Collection[domain.Student]
}

func NewRosterService(store *state.Store) RosterService {
	return &rosterService{students: store.Students()}
}

func (s *rosterService) ListStudents(ctx context.Context) []domain.Student {
	return s.students.All()
}

func (s *rosterService) GetStudent(ctx context.Context, id string) (domain.Student, error) {
	st, err := s.students.Get(id)
	return st, mapStateError(err)
}

func (s *rosterService) CreateStudent(ctx context.Context, in StudentInput) (domain.Student, error) {
	st := in.Student
	st.CreatedAt, st.UpdatedAt = nil, nil
	if st.Status == "" {
		st.Status = domain.StudentActive
	}
	if st.FeeStatus == "" {
		st.FeeStatus = domain.FeePending
	}
	username, hash, err := s.credentials("", st.ParentUsername, in.ParentPassword)
	if err != nil {
		return domain.Student{}, err
	}
	st.ParentUsername, st.ParentPasswordHash = username, hash

	created, err := s.students.Add(st)
	return created, mapStateError(err)
}

func (s *rosterService) UpdateStudent(ctx context.Context, id string, in StudentInput) (domain.Student, error) {
	username, hash, err := s.credentials(id, in.ParentUsername, in.ParentPassword)
	if err != nil {
		return domain.Student{}, err
	}

	updated, err := s.students.Modify(id, func(st *domain.Student) error {
		next := in.Student
		next.Meta = st.Meta
		next.ParentUsername = username
		// The hash is never sent to clients, so an update without a new password keeps it.
		next.ParentPasswordHash = st.ParentPasswordHash
		if hash != "" {
			next.ParentPasswordHash = hash
		}
		if next.Status == "" {
			next.Status = st.Status
		}
		*st = next
		return nil
	})
	return updated, mapStateError(err)
}

func (s *rosterService) DeleteStudent(ctx context.Context, id string) error {
	_, err := s.students.Remove(id)
	return mapStateError(err)
}

// credentials normalises the portal username, checks it is free for the
// student with id, and hashes password when one is given.
func (s *rosterService) credentials(id, username, password string) (string, string, error) {
	username = strings.TrimSpace(username)
	if username != "" {
		for _, other := range s.students.All() {
			if other.ID != id && strings.EqualFold(other.ParentUsername, username) {
				return "", "", ErrUsernameTaken
			}
		}
	}
	if password == "" {
		return username, "", nil
	}
	if username == "" {
		return "", "", fmt.Errorf("%w: parent password requires a parent username", ErrValidationFailed)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", "", err
	}
	return username, hash, nil
}

// mapStateError translates store errors into service errors.
func mapStateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, state.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, state.ErrInvalidRecord), errors.Is(err, state.ErrDuplicateID):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	default:
		return err
	}
}
