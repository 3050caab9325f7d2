package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/chat"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/utils"
)

// RegisterConversations registers the conversation listing, message listing
// and mark-read endpoints.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages", listConversationMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/read", markConversationRead).Methods(http.MethodPost)
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	viewerID := queryInt64(r, "userId")
	sums, err := chat.FetchConversations(viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sums == nil {
		sums = []models.ConversationSummary{}
	}
	logger.Debug("conversations_list", "user", viewerID, "count", len(sums))
	_ = utils.JSONWrite(w, http.StatusOK, sums)
}

func listConversationMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r))
	if !ok {
		return
	}
	viewerID := queryInt64(r, "userId")
	beforeID := queryInt64(r, "beforeId")
	msgs, err := chat.FetchMessages(id, viewerID, beforeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.AnnotatedMessage{}
	}
	logger.Debug("messages_list", "conversation", id, "user", viewerID, "count", len(msgs))
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

func markConversationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r))
	if !ok {
		return
	}
	var body struct {
		UserID int64 `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	marker, err := chat.MarkRead(id, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Success           bool  `json:"success"`
		LastReadMessageID int64 `json:"lastReadMessageId"`
	}{Success: true, LastReadMessageID: marker})
}
