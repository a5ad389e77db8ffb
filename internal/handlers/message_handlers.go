package handlers

// Direct-conversation and message-history handlers, rebuilt from the
// teacher's internal/handlers/message_handlers.go against
// internal/conversations and internal/messagelog.

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/conversations"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/messagelog"
)

type createDirectConversationRequest struct {
	FriendID uuid.UUID `json:"friend_id"`
}

// CreateDirectConversation godoc
// @Summary Get or create a direct conversation with a friend
// @Router /conversations/direct [post]
func CreateDirectConversation(svc *conversations.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req createDirectConversationRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		conversationID, err := svc.GetOrCreateDirect(r.Context(), userID, req.FriendID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"conversation_id": conversationID})
	}
}

// ListConversationMessages godoc
// @Summary Page through a conversation's messages for the caller's device
// @Router /conversations/{id}/messages [get]
func ListConversationMessages(convSvc *conversations.Service, msgSvc *messagelog.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, deviceID, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		conversationID, err := uuid.Parse(mux.Vars(r)["id"])
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "id must be a valid UUID"))
			return
		}
		if err := convSvc.RequireMember(r.Context(), conversationID, userID); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		envelopes, err := msgSvc.ListMessages(r.Context(), conversationID, deviceID, limit, offset)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"messages": envelopes})
	}
}
