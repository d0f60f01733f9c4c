package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"prepump-screener/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Message is the frame pushed to subscribers.
type Message struct {
	Type     string                 `json:"type"`
	SentAt   time.Time              `json:"sentAt"`
	Rankings []domain.RankingRecord `json:"rankings"`
}

// Hub pushes each new ranking to every connected client. A client sees the
// latest ranking on connect, then one frame per scan cycle.
type Hub struct {
	repo domain.ScreenerRepository
	log  *zap.Logger

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub(repo domain.ScreenerRepository, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		repo:    repo,
		log:     log,
		clients: make(map[chan []byte]struct{}),
	}
}

// BroadcastRankings queues the ranking for every client. Slow clients whose
// buffer is full skip the frame rather than block the scan cycle.
func (h *Hub) BroadcastRankings(rankings []domain.RankingRecord) {
	payload, err := encode("rankings", rankings)
	if err != nil {
		h.log.Error("encode rankings frame", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.log.Warn("websocket client lagging, frame dropped")
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// Handle upgrades the connection and streams ranking frames until the client
// goes away.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)
	h.log.Info("websocket client connected", zap.String("remote", r.RemoteAddr))

	snapshot, err := encode("snapshot", h.repo.GetRankings())
	if err != nil {
		h.log.Error("encode snapshot frame", zap.Error(err))
		return
	}
	if err := write(conn, websocket.TextMessage, snapshot); err != nil {
		return
	}

	done := make(chan struct{})
	go readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case payload := <-ch:
			if err := write(conn, websocket.TextMessage, payload); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func write(conn *websocket.Conn, messageType int, payload []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

func encode(kind string, rankings []domain.RankingRecord) ([]byte, error) {
	if rankings == nil {
		rankings = []domain.RankingRecord{}
	}
	return sonic.ConfigStd.Marshal(Message{Type: kind, SentAt: time.Now().UTC(), Rankings: rankings})
}
