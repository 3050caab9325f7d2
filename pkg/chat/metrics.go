package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inconsistencies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_send_inconsistencies_total",
		Help: "Sends whose marker auto-advance failed after the append.",
	})
	markersRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_markers_repaired_total",
		Help: "Read markers advanced by the background repair sweep.",
	})
)
