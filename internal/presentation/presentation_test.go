package presentation

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestLogPresenterCountsKinds(t *testing.T) {
	bus := event.NewBus()
	p := NewLogPresenter(zaptest.NewLogger(t))
	Attach(bus, p)

	event.Publish(bus, component.DamageFeedbackEvent{Amount: 3})
	event.Publish(bus, component.DamageFeedbackEvent{Amount: 4})
	event.Publish(bus, component.DeathUIAnimationEvent{})
	event.Publish(bus, component.CollisionUIAnimationEvent{})

	assert.Equal(t, map[string]int{KindDamage: 2, KindDeath: 1, KindCollision: 1}, p.Counts())
}

func TestFeedBroadcasts(t *testing.T) {
	feed := NewFeed(config.FeedConfig{SendBuffer: 8}, zap.NewNop())
	srv := httptest.NewServer(feed)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return feed.Clients() == 1 }, time.Second, 5*time.Millisecond)

	bus := event.NewBus()
	Attach(bus, feed)
	target := ecs.NewEntity(4, 1)
	event.Publish(bus, component.DamageFeedbackEvent{Target: target, Amount: 12.5, Lethal: true})
	event.Publish(bus, component.LevelUIUpdateEvent{LevelID: 2, Status: component.LevelCompleted})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first struct {
		Seq  uint64                        `json:"seq"`
		Kind string                        `json:"kind"`
		Data component.DamageFeedbackEvent `json:"data"`
	}
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, KindDamage, first.Kind)
	assert.Equal(t, target, first.Data.Target)
	assert.Equal(t, float32(12.5), first.Data.Amount)

	var second Message
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.Equal(t, KindLevel, second.Kind)

	require.NoError(t, feed.Shutdown(context.Background()))
	assert.Zero(t, feed.Clients())
}

func TestFeedWithoutClientsIsNoOp(t *testing.T) {
	feed := NewFeed(config.FeedConfig{}, zaptest.NewLogger(t))
	feed.Present(KindDeath, component.DeathUIAnimationEvent{})
	assert.Zero(t, feed.Clients())
	assert.Nil(t, feed.Addr())
}

func TestFeedListen(t *testing.T) {
	feed := NewFeed(config.FeedConfig{BindAddress: "127.0.0.1:0", Path: "/feed"}, zap.NewNop())
	require.NoError(t, feed.Listen())
	defer feed.Shutdown(context.Background())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+feed.Addr().String()+"/feed", nil)
	require.NoError(t, err)
	conn.Close()
}
