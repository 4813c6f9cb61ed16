package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgnsrekt/netchat_agent/internal/model"
	"github.com/dgnsrekt/netchat_agent/internal/types"
	"github.com/google/uuid"
)

// Service orchestrates one chat turn: prompt construction from the captured
// calls, model invocation, and conversation bookkeeping.
type Service struct {
	model    model.Chatter
	sessions *SessionStore
}

// NewService builds a chat service on top of a model runtime.
func NewService(m model.Chatter) *Service {
	return &Service{model: m, sessions: NewSessionStore()}
}

// Chat runs one turn. An empty session id starts a new conversation; the
// returned id identifies it for follow-ups. A model failure is narrated as
// an assistant message rather than returned as an error, so the caller
// always gets a well-formed message sequence.
func (s *Service) Chat(ctx context.Context, sessionID, message string, calls []types.NetworkCall) (string, []types.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, newCodedError(CodeValidation, "message is required")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history := s.sessions.History(sessionID)
	history = append(history, types.NewChatMessage(types.RoleHuman, message))

	modelMsgs := make([]model.Message, 0, len(history)+1)
	modelMsgs = append(modelMsgs, model.Message{Role: model.RoleSystem, Content: BuildSystemPrompt(calls)})
	for _, m := range history {
		modelMsgs = append(modelMsgs, model.Message{Role: modelRole(m.Type), Content: m.Data.Content})
	}

	content, err := s.model.Chat(ctx, modelMsgs)
	if err != nil {
		slog.Warn("model invocation failed", "session_id", sessionID, "error", err)
		content = "I ran into a problem talking to the local model: " + err.Error()
	}

	history = append(history, types.NewChatMessage(types.RoleAI, content))
	s.sessions.Put(sessionID, history)

	return sessionID, history, nil
}

func modelRole(chatRole string) string {
	switch chatRole {
	case types.RoleHuman:
		return model.RoleUser
	case types.RoleSystem:
		return model.RoleSystem
	default:
		return model.RoleAssistant
	}
}
