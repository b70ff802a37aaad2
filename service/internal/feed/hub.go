// Package feed streams session events to websocket viewers. It is a debug
// aid: the bot plays the same with or without viewers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// writeTimeout bounds how long a slow viewer can hold up a broadcast.
const writeTimeout = 2 * time.Second

// ErrUnauthorized is returned for a missing or invalid viewer token.
var ErrUnauthorized = errors.New("unauthorized")

// Envelope wraps every message sent to viewers.
type Envelope struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Payload  any    `json:"payload,omitempty"`
}

// Hub fans messages out to every connected viewer.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	seq    atomic.Uint64
	secret []byte
	log    logrus.FieldLogger
}

// NewHub returns an empty hub. A non-empty secret makes Handler require an
// HS256-signed token in the "token" query parameter.
func NewHub(secret string, log logrus.FieldLogger) *Hub {
	h := &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		log:   log,
	}
	if secret != "" {
		h.secret = []byte(secret)
	}
	return h
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Len is the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends payload to every viewer under the next sequence number.
// Viewers whose write fails are dropped.
func (h *Hub) Broadcast(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(Envelope{
		Sequence: h.seq.Add(1),
		Type:     eventType,
		Payload:  payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.log.WithError(err).Debug("dropping feed viewer")
			h.remove(c)
			c.Close(websocket.StatusGoingAway, "write failed")
		}
	}
	return nil
}

// Authorize checks a viewer token against the hub secret. Without a secret
// every request is allowed.
func (h *Hub) Authorize(token string) error {
	if h.secret == nil {
		return nil
	}
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	_, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// IssueToken signs a viewer token valid for ttl.
func (h *Hub) IssueToken(subject string, ttl time.Duration) (string, error) {
	if h.secret == nil {
		return "", errors.New("feed: no secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Handler accepts viewer connections. Viewers only listen; anything they
// send is discarded.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if err := h.Authorize(token); err != nil {
			h.log.WithError(err).Warn("rejected feed viewer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			h.log.WithError(err).Warn("feed upgrade failed")
			return
		}
		h.add(conn)
		h.log.WithField("viewers", h.Len()).Info("feed viewer connected")

		ctx := conn.CloseRead(r.Context())
		<-ctx.Done()
		h.remove(conn)
		conn.Close(websocket.StatusNormalClosure, "")
	})
}
