/*
Package chat contains the real-time messaging core: the connection registry
with presence broadcasting, the per-conversation room router, the message
relay, and the typing indicator relay.

This file implements the message relay: validate, persist, acknowledge to the
sender, and forward to the receiver's live connection when there is one.
*/
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"duochat/internal/app/message"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
)

// persistTimeout bounds the store write for one message.
const persistTimeout = 5 * time.Second

// Relay persists messages and fans them out between the two participants of
// a conversation.
type Relay struct {
	hub    *Hub
	store  message.Store
	logger zerolog.Logger
}

// NewRelay constructs a Relay over the given registry and message store.
func NewRelay(hub *Hub, store message.Store) *Relay {
	return &Relay{
		hub:    hub,
		store:  store,
		logger: logx.Logger().With().Str("component", "Relay").Logger(),
	}
}

// Send handles one new-message submission from a connection:
//
//  1. empty bodies are silently ignored; other validation failures produce an
//     error event to the sender only;
//  2. the message is persisted with a server-assigned ID and timestamp, at
//     most one attempt; a store failure produces an error event and nothing
//     else;
//  3. the sender always gets a message-sent acknowledgment with the
//     persisted record;
//  4. the receiver's connection is looked up at completion time, not send
//     time, and gets message-received iff still registered. An offline
//     receiver sees the message on the next history fetch.
func (r *Relay) Send(sender *Client, payload NewMessagePayload) {
	body := payload.Message
	if body == "" {
		return
	}

	if len(body) > message.MaxBodyBytes {
		sender.SendError(errs.NewError(errs.ErrMessageTooLong))
		return
	}

	if payload.SenderID != "" && payload.SenderID != sender.user.ID {
		sender.SendError(errs.NewError(errs.ErrSenderMismatch))
		return
	}

	if payload.ReceiverID == "" {
		sender.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.ReceiverID == sender.user.ID {
		sender.SendError(errs.NewError(errs.ErrSelfMessage))
		return
	}

	// Sending a message ends the typing indicator for the active room.
	sender.stopTypingOnSend()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msg, err := r.store.Create(ctx, sender.user.ID, payload.ReceiverID, body)
	if err != nil {
		r.logger.Error().Err(err).
			Str("sender_id", sender.user.ID).
			Str("receiver_id", payload.ReceiverID).
			Msg("Failed to persist message.")

		sender.SendError(errs.NewError(errs.ErrMessageStoreFailed))
		return
	}

	if err := sender.sendEvent(EventMessageSent, msg); err != nil {
		r.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to queue message-sent ack.")
	}

	if receiver, ok := r.hub.Lookup(payload.ReceiverID); ok {
		if err := receiver.sendEvent(EventMessageReceived, msg); err != nil {
			r.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to queue message-received push.")
		}
	}
}
