package chat

import "fmt"

// InconsistencyWarning reports that a message was appended but the sender's
// marker could not be advanced past it, leaving an unread self-message. The
// append itself succeeded; callers must log the warning (never drop it) and
// the repair sweep reconciles the cursor from the log.
type InconsistencyWarning struct {
	ConversationID int64
	UserID         int64
	MessageID      int64
	Err            error
}

func (w *InconsistencyWarning) Error() string {
	return fmt.Sprintf("message %d appended but sender %d marker not advanced in conversation %d: %v",
		w.MessageID, w.UserID, w.ConversationID, w.Err)
}

func (w *InconsistencyWarning) Unwrap() error { return w.Err }
