package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/chat"
	"chatsync/pkg/logger"
	"chatsync/pkg/utils"
)

// RegisterMessages registers the send endpoint.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/messages", sendMessage).Methods(http.MethodPost)
}

type sendRequest struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
}

type sendResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := chat.SendMessage(req.ConversationID, req.SenderID, req.Content)
	if err != nil {
		var warn *chat.InconsistencyWarning
		if errors.As(err, &warn) {
			// The append succeeded; the sender's cursor lags until the
			// repair sweep catches it. Surface loudly, answer normally.
			logger.Error("send_marker_inconsistency", "conversation", warn.ConversationID,
				"sender", warn.UserID, "message", warn.MessageID, "error", warn.Err)
		} else {
			writeError(w, err)
			return
		}
	}
	logger.Info("message_sent", "conversation", m.ConversationID, "id", m.ID, "sender", m.SenderID)
	_ = utils.JSONWrite(w, http.StatusOK, sendResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	})
}
