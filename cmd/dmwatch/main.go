// dmwatch tails the event stream of a game session and prints each turn and
// lifecycle event as it happens.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/avezina/dmhub/internal/config"
	"github.com/avezina/dmhub/internal/protocol"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var (
		serverURL = flag.String("server", cfg.ServerURL, "dmhub server base URL")
		apiKey    = flag.String("key", cfg.APIKey, "API key (also DMHUB_API_KEY)")
		sessionID = flag.Int64("session", 0, "session id to watch")
	)
	flag.Parse()

	if *sessionID <= 0 {
		log.Fatalf("-session is required")
	}
	if strings.TrimSpace(*apiKey) == "" {
		log.Fatalf("an API key is required (flag -key or DMHUB_API_KEY)")
	}

	wsURL := toWebsocketURL(*serverURL) + fmt.Sprintf("/sessions/%d/events", *sessionID)
	header := http.Header{"X-API-Key": []string{*apiKey}}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			log.Fatalf("connect to %s: %v (status %d)", wsURL, err, resp.StatusCode)
		}
		log.Fatalf("connect to %s: %v", wsURL, err)
	}
	defer conn.Close()
	resp.Body.Close()

	fmt.Printf("Watching session %d on %s\n", *sessionID, *serverURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("stream closed: %v", err)
				}
				return
			}
			printEvent(raw)
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		<-done
	case <-done:
	}
}

// toWebsocketURL converts the configured HTTP base URL to its websocket
// counterpart, preserving TLS.
func toWebsocketURL(serverURL string) string {
	u := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}

func printEvent(raw []byte) {
	msg, err := protocol.ParseServerMessage(raw)
	if err != nil {
		log.Printf("unreadable event: %v", err)
		return
	}

	switch m := msg.(type) {
	case protocol.Turn:
		fmt.Printf("\n[%s] You: %s\nDM: %s\n",
			m.CreatedAt.Local().Format("15:04:05"), m.PlayerInput, m.DMResponse)
	case protocol.SessionEvent:
		suffix := ""
		if m.Event == protocol.EventSessionEnded && m.HasRecap {
			suffix = " (recap available)"
		}
		fmt.Printf("\n* session %d %s%s\n", m.SessionID, m.Event, suffix)
	case protocol.ErrorEvent:
		fmt.Printf("\n! server error %s: %s\n", m.Code, m.Detail)
	}
}
