package service

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
)

type NoteService interface {
	CreateNote(ctx context.Context, note domain.TrainerNote) (domain.TrainerNote, error)
	MarkRead(ctx context.Context, id string) (domain.TrainerNote, error)
	Unread(ctx context.Context) []domain.TrainerNote
}

type noteService struct {
	notes *state.Collection[domain.TrainerNote]
}

func NewNoteService(store *state.Store) NoteService {
	return &noteService{notes: store.Notes()}
}

func (s *noteService) CreateNote(ctx context.Context, note domain.TrainerNote) (domain.TrainerNote, error) {
	note.CreatedAt, note.UpdatedAt = nil, nil
	note.Status = domain.NoteNew
	if note.Priority == "" {
		note.Priority = "normal"
	}
	created, err := s.notes.Add(note)
	return created, mapStateError(err)
}

// MarkRead is idempotent.
func (s *noteService) MarkRead(ctx context.Context, id string) (domain.TrainerNote, error) {
	note, err := s.notes.Modify(id, func(n *domain.TrainerNote) error {
		n.Status = domain.NoteRead
		return nil
	})
	return note, mapStateError(err)
}

func (s *noteService) Unread(ctx context.Context) []domain.TrainerNote {
	var out []domain.TrainerNote
	for _, n := range s.notes.All() {
		if n.Status != domain.NoteRead {
			out = append(out, n)
		}
	}
	return out
}
