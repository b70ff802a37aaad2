package feed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub(t *testing.T, secret string) (*Hub, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(secret, logger)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) (*websocket.Conn, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	}
	return c, err
}

func TestBroadcastReachesViewers(t *testing.T) {
	hub, url := newHub(t, "")
	a, err := dial(t, url)
	require.NoError(t, err)
	b, err := dial(t, url)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, hub.Broadcast(ctx, "turn_observed", map[string]int{"candidates": 12}))
	require.NoError(t, hub.Broadcast(ctx, "orders_committed", nil))

	for _, c := range []*websocket.Conn{a, b} {
		var got []Envelope
		for i := 0; i < 2; i++ {
			_, data, err := c.Read(ctx)
			require.NoError(t, err)
			var env Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			got = append(got, env)
		}
		assert.Equal(t, uint64(1), got[0].Sequence)
		assert.Equal(t, "turn_observed", got[0].Type)
		assert.Equal(t, map[string]any{"candidates": float64(12)}, got[0].Payload)
		assert.Equal(t, uint64(2), got[1].Sequence)
		assert.Nil(t, got[1].Payload)
	}
}

func TestViewerDisconnect(t *testing.T) {
	hub, url := newHub(t, "")
	c, err := dial(t, url)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	c.Close(websocket.StatusNormalClosure, "bye")
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Broadcast(context.Background(), "tick", nil))
}

func TestTokenRequired(t *testing.T) {
	hub, url := newHub(t, "s3cret")

	_, err := dial(t, url)
	assert.Error(t, err, "connection without token accepted")

	token, err := hub.IssueToken("viewer", time.Minute)
	require.NoError(t, err)
	_, err = dial(t, url+"?token="+token)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestAuthorize(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub("s3cret", logger)

	expired, err := hub.IssueToken("viewer", -time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, hub.Authorize(expired), ErrUnauthorized)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "viewer"}).
		SignedString([]byte("other"))
	require.NoError(t, err)
	assert.ErrorIs(t, hub.Authorize(forged), ErrUnauthorized)
	assert.ErrorIs(t, hub.Authorize(""), ErrUnauthorized)

	open := NewHub("", logger)
	assert.NoError(t, open.Authorize(""))
	_, err = open.IssueToken("viewer", time.Minute)
	assert.Error(t, err)
}
