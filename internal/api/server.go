package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/netchat_agent/internal/chat"
	"github.com/dgnsrekt/netchat_agent/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the chat backend surface exposed over HTTP.
type Service interface {
	Chat(ctx context.Context, sessionID, message string, calls []types.NetworkCall) (string, []types.ChatMessage, error)
}

// NewChatServer wires the chat API onto a chi router with huma operation
// registration.
func NewChatServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("NetChat API", "1.0.0")
	api := humachi.New(router, cfg)

	registerChatHandlers(api, svc)
	return router
}

func registerChatHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type chatInput struct {
		Body struct {
			SessionID    string              `json:"sessionId,omitempty" doc:"Conversation to continue; omit to start a new one"`
			Message      string              `json:"message" doc:"The user's question about the captured traffic"`
			NetworkCalls []types.NetworkCall `json:"networkCalls,omitempty" doc:"Serialized completed calls, most recent first"`
		}
	}
	type chatOutput struct {
		Body struct {
			SessionID string              `json:"sessionId"`
			Messages  []types.ChatMessage `json:"messages"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "chat", Method: http.MethodPost, Path: "/chat", Summary: "Ask the assistant about captured network traffic", Tags: []string{"Chat"}},
		func(ctx context.Context, input *chatInput) (*chatOutput, error) {
			sessionID, messages, err := svc.Chat(ctx, input.Body.SessionID, input.Body.Message, input.Body.NetworkCalls)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &chatOutput{}
			out.Body.SessionID = sessionID
			out.Body.Messages = messages
			return out, nil
		})
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *chat.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case chat.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
