package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// LogStream maintains a logsSubscribe subscription mentioning the token mint
// and surfaces observed signatures. It is advisory: the poll cycle remains
// the source of truth, so a dropped connection only delays wake-ups.
type LogStream struct {
	endpoint string
	mint     string
	sigs     chan string
}

// NewLogStream prepares a stream against the given ws endpoint.
func NewLogStream(endpoint, mint string) *LogStream {
	return &LogStream{
		endpoint: endpoint,
		mint:     mint,
		sigs:     make(chan string, 64),
	}
}

// Signatures delivers signature strings seen on the subscription.
func (s *LogStream) Signatures() <-chan string { return s.sigs }

// Run connects and reads until the context is cancelled, reconnecting with
// linear backoff after failures.
func (s *LogStream) Run(ctx context.Context) {
	defer close(s.sigs)
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.readLoop(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("log stream disconnected: %v, reconnecting in %s", err, backoff)
		}
		select {
		case <-time.After(backoff):
			if backoff < 15*time.Second {
				backoff += time.Second
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *LogStream) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.endpoint, err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{s.mint}},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Infof("log stream subscribed for mint %s", s.mint)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg struct {
			Method string `json:"method"`
			Params struct {
				Result struct {
					Value struct {
						Signature string          `json:"signature"`
						Err       json.RawMessage `json:"err"`
					} `json:"value"`
				} `json:"result"`
			} `json:"params"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Method != "logsNotification" {
			continue
		}
		if msg.Params.Result.Value.Signature == "" {
			continue
		}
		if string(msg.Params.Result.Value.Err) != "null" && len(msg.Params.Result.Value.Err) > 0 {
			continue
		}
		select {
		case s.sigs <- msg.Params.Result.Value.Signature:
		default:
			// Poller is behind; it will see the signature on its next page.
		}
	}
}
