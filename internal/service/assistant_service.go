package service

import (
	"alcyxob/sports-academy/internal/assistant"
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")

// ChatReply is what the chat client sees. Fallback is set when the canned
// message was returned instead of a model answer.
type ChatReply struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

type AssistantService interface {
	Context(ctx context.Context) assistant.Context
	Chat(ctx context.Context, question string) (ChatReply, error)
}

type assistantService struct {
	store     *state.Store
	responder assistant.Responder
	logger    *zap.Logger
}

func NewAssistantService(store *state.Store, responder assistant.Responder, logger *zap.Logger) AssistantService {
	return &assistantService{store: store, responder: responder, logger: logger}
}

// Context builds the redacted academy view. Only names and aggregates leave
// this function.
func (s *assistantService) Context(ctx context.Context) assistant.Context {
	ac := assistant.Context{
		ActiveStudents: []string{},
		FeeStatus:      map[string]int{},
		Trainers:       []string{},
	}

	students := s.store.Students().All()
	ac.Students = len(students)
	for _, st := range students {
		if st.IsActive() {
			ac.ActiveStudents = append(ac.ActiveStudents, st.Name)
		}
		if st.FeeStatus != "" {
			ac.FeeStatus[string(st.FeeStatus)]++
		}
	}
	for _, t := range s.store.Trainers().All() {
		ac.Trainers = append(ac.Trainers, t.Name)
	}
	ac.Sessions = s.store.Sessions().Len()
	ac.Drills = s.store.Drills().Len()

	fin := summarize(s.store.Finance().All(), "")
	ac.Income, ac.Expense, ac.Balance = fin.Income, fin.Expense, fin.Balance

	for _, m := range s.store.Media().All() {
		if m.Status == domain.MediaPending {
			ac.PendingMedia++
		}
	}
	for _, n := range s.store.Notes().All() {
		if n.Status != domain.NoteRead {
			ac.UnreadNotes++
		}
	}
	return ac
}

// Chat never surfaces a responder error; the client gets the canned reply.
func (s *assistantService) Chat(ctx context.Context, question string) (ChatReply, error) {
	if strings.TrimSpace(question) == "" {
		return ChatReply{}, ErrEmptyQuestion
	}
	reply, err := s.responder.Reply(ctx, s.Context(ctx), question)
	if err != nil {
		s.logger.Warn("assistant fell back to canned reply", zap.Error(err))
		return ChatReply{Reply: assistant.FallbackReply, Fallback: true}, nil
	}
	return ChatReply{Reply: reply}, nil
}
