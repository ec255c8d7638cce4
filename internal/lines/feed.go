package lines

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LIVE LINE FEED
// ═══════════════════════════════════════════════════════════════════════════════
//
// Subscribes to the sportsbook's total-line stream and keeps the last seen
// line per (sport, game). When the socket has no entry yet, a one-shot HTTP
// snapshot fills the gap.
//
// ═══════════════════════════════════════════════════════════════════════════════

var (
	reconnectDelay = 5 * time.Second
	pingInterval   = 30 * time.Second
)

// lineUpdate is one message on the stream.
type lineUpdate struct {
	Sport   string          `json:"sport"`
	GameKey string          `json:"game_key"`
	Total   decimal.Decimal `json:"total"`
}

type snapshotResponse struct {
	Lines []lineUpdate `json:"lines"`
}

// Feed caches live total lines. Satisfies edge.LineSource.
type Feed struct {
	mu sync.RWMutex

	wsURL   string
	httpURL string
	conn    *websocket.Conn
	running bool
	stopCh  chan struct{}

	httpClient *http.Client

	// last seen line per "sport|gameKey"
	totals map[string]decimal.Decimal
}

func NewFeed(wsURL, httpURL string, timeout time.Duration) *Feed {
	return &Feed{
		wsURL:      wsURL,
		httpURL:    httpURL,
		stopCh:     make(chan struct{}),
		httpClient: &http.Client{Timeout: timeout},
		totals:     make(map[string]decimal.Decimal),
	}
}

// Start begins the connection loop. No-op when no websocket URL is
// configured; the feed then serves HTTP snapshots only.
func (f *Feed) Start() {
	if f.wsURL == "" {
		log.Info().Msg("📡 Line feed in snapshot-only mode")
		return
	}

	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return
	}
	f.running = true
	f.mu.Unlock()

	go f.connectionLoop()
	log.Info().Msg("📡 Line feed started")
}

// Stop closes the connection.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}
	f.running = false
	close(f.stopCh)
	if f.conn != nil {
		f.conn.Close()
	}
}

// TotalLine returns the last seen total line for a game. Falls back to an
// HTTP snapshot on a cache miss.
func (f *Feed) TotalLine(sport, gameKey string) (decimal.Decimal, bool) {
	key := sport + "|" + gameKey

	f.mu.RLock()
	total, ok := f.totals[key]
	f.mu.RUnlock()
	if ok {
		return total, true
	}

	if err := f.refreshSnapshot(sport); err != nil {
		log.Debug().Err(err).Str("sport", sport).Msg("Line snapshot failed")
		return decimal.Zero, false
	}

	f.mu.RLock()
	total, ok = f.totals[key]
	f.mu.RUnlock()
	return total, ok
}

// refreshSnapshot pulls the current lines for a sport over HTTP.
func (f *Feed) refreshSnapshot(sport string) error {
	if f.httpURL == "" {
		return fmt.Errorf("no line snapshot URL configured")
	}

	resp, err := f.httpClient.Get(fmt.Sprintf("%s/v1/%s/lines", f.httpURL, sport))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lines snapshot returned %d", resp.StatusCode)
	}

	var snapshot snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return err
	}

	f.mu.Lock()
	for _, l := range snapshot.Lines {
		if l.GameKey == "" || l.Total.IsZero() {
			continue
		}
		f.totals[l.Sport+"|"+l.GameKey] = l.Total
	}
	f.mu.Unlock()
	return nil
}

// connectionLoop maintains the WebSocket connection. Each connection gets
// its own pinger whose lifetime ends with that connection's read loop, so
// flapping sockets never accumulate pingers.
func (f *Feed) connectionLoop() {
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		conn, err := f.connect()
		if err != nil {
			log.Error().Err(err).Msg("Line feed connection failed, retrying...")
			time.Sleep(reconnectDelay)
			continue
		}

		done := make(chan struct{})
		go f.pingLoop(conn, done)
		f.readLoop(conn)
		close(done)
		time.Sleep(reconnectDelay)
	}
}

func (f *Feed) connect() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	log.Info().Msg("🔌 Line feed connected")
	return conn, nil
}

func (f *Feed) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		var update lineUpdate
		if err := conn.ReadJSON(&update); err != nil {
			log.Warn().Err(err).Msg("Line feed read failed, reconnecting")
			conn.Close()
			return
		}
		if update.GameKey == "" || update.Total.IsZero() {
			continue
		}

		f.mu.Lock()
		f.totals[update.Sport+"|"+update.GameKey] = update.Total
		f.mu.Unlock()
	}
}

// pingLoop keeps one connection alive. Exits when that connection's read
// loop ends or the feed stops.
func (f *Feed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-f.stopCh:
			return
		case <-ticker.C:
			conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}
