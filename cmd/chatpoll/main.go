// Command chatpoll is an interactive terminal client. It polls the
// server on a fixed cadence and reconciles its view of conversations
// and read receipts with whatever the server says.
//
// Commands:
//
//	user <id>   switch the active viewer
//	open <id>   open a conversation
//	close       close the open conversation
//	send <text> send a message to the open conversation
//	quit        exit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"chatsync/pkg/client"
	"chatsync/pkg/config"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/poller"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		server   string
		interval time.Duration
	)
	flag.StringVar(&server, "server", "http://localhost:8080", "chatsync server base URL")
	flag.DurationVar(&interval, "interval", 0, "poll interval (default 2s, or poll.interval from config)")
	cfgPath := flag.String("config", "", "optional config file for poll.interval")
	flag.Parse()

	logger.Init()

	if interval <= 0 {
		cfg := &config.Config{}
		if *cfgPath != "" {
			if c, err := config.Load(*cfgPath); err == nil {
				cfg = c
			}
		}
		config.ApplyEnvOverrides(cfg)
		interval = cfg.PollInterval()
	}

	api := client.New(server)
	r := &terminalRenderer{}
	p := poller.New(api, r, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer p.Stop()

	fmt.Printf("chatpoll connected to %s (interval %s)\n", server, interval)
	printUsers(ctx, api)
	fmt.Println("commands: user <id> | open <id> | close | send <text> | quit")

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "user":
			id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
			if err != nil || id <= 0 {
				fmt.Println("usage: user <id>")
				continue
			}
			r.reset()
			p.SetViewer(ctx, id)
			fmt.Printf("viewing as user %d\n", id)
		case "open":
			st := p.State()
			if st.Viewer == 0 {
				fmt.Println("pick a viewer first: user <id>")
				continue
			}
			id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
			if err != nil || id <= 0 {
				fmt.Println("usage: open <id>")
				continue
			}
			r.open(ctx, api, id, st.Viewer)
			p.Open(id)
			p.TickNow(ctx)
		case "close":
			p.Close()
			r.reset()
			fmt.Println("conversation closed")
		case "send":
			st := p.State()
			if st.Viewer == 0 || st.OpenConversation == 0 {
				fmt.Println("open a conversation first")
				continue
			}
			content := strings.TrimSpace(rest)
			if content == "" {
				fmt.Println("usage: send <text>")
				continue
			}
			if _, err := api.Send(ctx, st.OpenConversation, st.Viewer, content); err != nil {
				fmt.Printf("send failed: %v\n", err)
				continue
			}
			p.TickNow(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: user <id> | open <id> | close | send <text> | quit")
		}
	}
}

func printUsers(ctx context.Context, api *client.Client) {
	users, err := api.ListUsers(ctx)
	if err != nil {
		fmt.Printf("failed to list users: %v\n", err)
		return
	}
	fmt.Println("users:")
	for _, u := range users {
		fmt.Printf("  %d  %s\n", u.ID, u.Username)
	}
}

// terminalRenderer prints poll results to stdout. The divider marker is
// the viewer's read position snapshotted when the conversation was
// opened, so the "N unread" bar stays put while new ticks arrive.
type terminalRenderer struct {
	mu            sync.Mutex
	viewer        int64
	dividerMarker int64
	haveDivider   bool
}

func (t *terminalRenderer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewer = 0
	t.dividerMarker = 0
	t.haveDivider = false
}

// open snapshots the viewer's marker before the poller starts
// acknowledging, so the unread divider survives the first markRead.
func (t *terminalRenderer) open(ctx context.Context, api *client.Client, conversationID, viewer int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewer = viewer
	t.dividerMarker = 0
	t.haveDivider = false
	sums, err := api.Conversations(ctx, viewer)
	if err != nil {
		return
	}
	for _, s := range sums {
		if s.ID == conversationID {
			t.dividerMarker = s.LastReadMessageID
			t.haveDivider = s.UnreadCount > 0
			return
		}
	}
}

func (t *terminalRenderer) RenderSummaries(sums []models.ConversationSummary) {
	fmt.Println("\n-- conversations --")
	for _, s := range sums {
		badge := ""
		if s.UnreadCount > 0 {
			badge = fmt.Sprintf("  [%d unread]", s.UnreadCount)
		}
		last := ""
		if s.LastMessage != nil {
			last = "  " + truncate(*s.LastMessage, 40)
		}
		fmt.Printf("  %d  %s%s%s\n", s.ID, s.Name, badge, last)
	}
	fmt.Print("> ")
}

func (t *terminalRenderer) RenderMessages(conversationID int64, msgs []models.AnnotatedMessage) {
	t.mu.Lock()
	marker, divider, viewer := t.dividerMarker, t.haveDivider, t.viewer
	t.mu.Unlock()

	fmt.Printf("\n-- conversation %d --\n", conversationID)
	shown := false
	for _, m := range msgs {
		if divider && !shown && m.ID > marker && m.SenderID != viewer {
			unread := 0
			for _, n := range msgs {
				if n.ID > marker && n.SenderID != viewer {
					unread++
				}
			}
			fmt.Printf("  ----- %d unread messages -----\n", unread)
			shown = true
		}
		receipt := ""
		if m.SenderID == viewer {
			if m.IsRead == 1 {
				receipt = " ✓✓"
			} else {
				receipt = " ✓"
			}
		}
		fmt.Printf("  [%d] %s: %s%s\n", m.ID, m.SenderName, m.Content, receipt)
	}
	fmt.Print("> ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
