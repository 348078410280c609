// Package assistant answers free-form questions about the academy using a
// hosted language model. It only ever sees the redacted Context.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// FallbackReply is shown to the user whenever the model cannot answer.
const FallbackReply = "The assistant is not available right now. Please try again in a moment."

var ErrNoAnswer = errors.New("assistant returned no text")

// Context is the read-only view of the academy handed to the model.
// Names only: no parent credentials or phone numbers.
type Context struct {
	Students       int            `json:"students"`
	ActiveStudents []string       `json:"activeStudents"`
	FeeStatus      map[string]int `json:"feeStatus"`
	Trainers       []string       `json:"trainers"`
	Sessions       int            `json:"sessions"`
	Drills         int            `json:"drills"`
	Income         float64        `json:"income"`
	Expense        float64        `json:"expense"`
	Balance        float64        `json:"balance"`
	PendingMedia   int            `json:"pendingMedia"`
	UnreadNotes    int            `json:"unreadNotes"`
}

// Responder produces an answer to question given the academy context.
type Responder interface {
	Reply(ctx context.Context, ac Context, question string) (string, error)
}

const systemInstruction = `You are the management assistant of a youth sports academy.
Answer briefly and only from the academy data you are given. If the data does not
contain the answer, say so.`

// Gemini is a Responder backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini creates the client. An empty apiKey is rejected.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assistant API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout, logger: logger}, nil
}

func (g *Gemini) Reply(ctx context.Context, ac Context, question string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt, err := Prompt(ac, question)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		g.logger.Warn("assistant request failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoAnswer
	}
	return text, nil
}

// Prompt renders the user turn sent to the model.
func Prompt(ac Context, question string) (string, error) {
	data, err := json.MarshalIndent(ac, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Academy data:\n")
	b.Write(data)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String(), nil
}

// Offline is used when no API key is configured.
type Offline struct{}

func (Offline) Reply(context.Context, Context, string) (string, error) {
	return "", ErrNoAnswer
}
