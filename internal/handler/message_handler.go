/*
Package handler provides HTTP handler functions for conversation history.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"duochat/internal/app/message"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
	"duochat/internal/pkg/resp"
)

// defaultHistoryLimit bounds a conversation fetch without an explicit limit.
const defaultHistoryLimit = 200

// HandleConversation returns the caller's message history with the peer the
// chat ID names, oldest first. An unknown peer yields an empty history, not
// an error, so opening a fresh conversation needs no special casing.
func HandleConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		peerID := chi.URLParam(r, "chatId")
		if peerID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = parsed
		}

		history, err := deps.Messages.Conversation(r.Context(), identity.ID, peerID, limit)
		if err != nil {
			logx.Error(err, "conversation: fetch failed", "user_id", identity.ID, "peer_id", peerID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if history == nil {
			history = []*message.Message{}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": history,
		})
	}
}

// HandleGetMessage returns a single message by ID. Callers only see messages
// they sent or received; anything else reads as not found.
func HandleGetMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		msg, err := deps.Messages.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, message.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
				return
			}

			logx.Error(err, "get_message: fetch failed", "message_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if msg.SenderID != identity.ID && msg.ReceiverID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"message": msg,
		})
	}
}
