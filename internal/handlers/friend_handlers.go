package handlers

// Friend-graph handlers: request/respond/list/block/search, rebuilt from
// the teacher's internal/handlers/friend_handlers.go against
// internal/friends.

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/friends"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
)

type friendIDRequest struct {
	FriendID uuid.UUID `json:"friend_id"`
}

// RequestFriend godoc
// @Router /friends/request [post]
func RequestFriend(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req friendIDRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		if err := svc.Request(r.Context(), userID, req.FriendID); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "friend request sent"})
	}
}

type respondFriendRequest struct {
	FriendID uuid.UUID `json:"friend_id"`
	Accept   bool      `json:"accept"`
}

// RespondFriend godoc
// @Router /friends/respond [post]
func RespondFriend(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req respondFriendRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		if err := svc.Respond(r.Context(), req.FriendID, userID, req.Accept); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "friend request updated"})
	}
}

// ListFriends godoc
// @Router /friends [get]
func ListFriends(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		ids, err := svc.List(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"friends": ids})
	}
}

// ListPendingFriendRequests godoc
// @Router /friends/pending [get]
func ListPendingFriendRequests(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		ids, err := svc.ListPending(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"pending": ids})
	}
}

// BlockUser godoc
// @Router /friends/block [post]
func BlockUser(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req friendIDRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		if err := svc.Block(r.Context(), userID, req.FriendID); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "user blocked"})
	}
}

// SearchUsers godoc
// @Router /friends/search [get]
func SearchUsers(svc *friends.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := callerIdentity(w, r, log); !ok {
			return
		}
		prefix := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		users, err := svc.SearchByUsername(r.Context(), prefix, limit)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		out := make([]map[string]any, 0, len(users))
		for _, u := range users {
			out = append(out, map[string]any{
				"user_id":      u.ID,
				"username":     u.Username.String,
				"display_name": u.DisplayName.String,
			})
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
	}
}
