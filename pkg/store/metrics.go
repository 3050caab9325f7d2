package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_messages_appended_total",
		Help: "Messages appended to conversation logs.",
	})
	markerAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_marker_advances_total",
		Help: "Read marker advancements that moved the cursor forward.",
	})
	staleAcks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_marker_stale_acks_total",
		Help: "Acknowledgements ignored because the cursor was already at or past the message.",
	})
)
