package streaming

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/pkg/logger"
)

func event(t models.EventType, phone string) *models.CommunityEvent {
	e := models.NewCommunityEvent(t, "u1", time.Now())
	e.Phone = phone
	return e
}

func TestSubscriptionMatches(t *testing.T) {
	reportID := uuid.New()
	verified := event(models.EventReportVerified, "+2348031234567")
	verified.ReportID = &reportID

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil matches all", nil, true},
		{"empty matches all", &Subscription{}, true},
		{"type hit", &Subscription{Types: []models.EventType{models.EventReportVerified}}, true},
		{"type miss", &Subscription{Types: []models.EventType{models.EventReportVoted}}, false},
		{"phone miss", &Subscription{Phone: "+2348000000000"}, false},
		{"report hit", &Subscription{ReportID: reportID.String()}, true},
		{"report miss", &Subscription{ReportID: uuid.NewString()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.Matches(verified))
		})
	}
}

func TestSubscriptionNormalized(t *testing.T) {
	n := phoneintel.NewNormalizer("NG")

	sub := &Subscription{Phone: "08031234567", Types: []models.EventType{models.EventBlacklistUpdated}}
	got := sub.Normalized(n)
	assert.Equal(t, "+2348031234567", got.Phone)
	assert.Equal(t, "08031234567", sub.Phone)
	assert.True(t, got.Matches(event(models.EventBlacklistUpdated, "+2348031234567")))
	assert.False(t, sub.Matches(event(models.EventBlacklistUpdated, "+2348031234567")))

	var none *Subscription
	assert.Nil(t, none.Normalized(n))
	assert.Same(t, sub, sub.Normalized(nil))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "scamshield.community.report.verified", Subject("", models.EventReportVerified))
	assert.Equal(t, "ng.community.blacklist.updated", Subject("ng", models.EventBlacklistUpdated))
	assert.Equal(t, "ng.community.>", subjectWildcard("ng"))
}

func TestConsumerSubjects(t *testing.T) {
	assert.Equal(t, []string{"scamshield.community.>"}, consumerSubjects("", nil))
	assert.Equal(t, []string{"ss.community.>"}, consumerSubjects("ss", &Subscription{Phone: "+234"}))
	assert.Equal(t,
		[]string{"ss.community.report.verified", "ss.community.blacklist.updated"},
		consumerSubjects("ss", &Subscription{Types: []models.EventType{models.EventReportVerified, models.EventBlacklistUpdated}}))
}

func TestEventBusFiltersAndUnsubscribes(t *testing.T) {
	bus := NewEventBus(nil, logger.Nop())
	ctx := context.Background()

	all, unsubAll := bus.Subscribe(nil)
	votes, unsubVotes := bus.Subscribe(&Subscription{Types: []models.EventType{models.EventReportVoted}})
	assert.Equal(t, 2, bus.SubscriberCount())

	require.NoError(t, bus.Publish(ctx, event(models.EventReportSubmitted, "")))
	require.NoError(t, bus.Publish(ctx, event(models.EventReportVoted, "")))

	assert.Equal(t, models.EventReportSubmitted, (<-all).Type)
	assert.Equal(t, models.EventReportVoted, (<-all).Type)
	assert.Equal(t, models.EventReportVoted, (<-votes).Type)
	assert.Len(t, votes, 0)

	unsubVotes()
	unsubVotes()
	assert.Equal(t, 1, bus.SubscriberCount())
	_, open := <-votes
	assert.False(t, open)

	bus.Close()
	_, open = <-all
	assert.False(t, open)
	unsubAll()
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := NewEventBus(nil, logger.Nop())
	ch, unsub := bus.Subscribe(nil)
	defer unsub()

	for i := 0; i < 150; i++ {
		require.NoError(t, bus.Publish(context.Background(), event(models.EventReportVoted, "")))
	}
	assert.Len(t, ch, 100)
}

func TestConsume(t *testing.T) {
	bus := NewEventBus(nil, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan models.EventType, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Consume(ctx, &Subscription{Types: []models.EventType{models.EventBlacklistUpdated}},
			func(_ context.Context, e *models.CommunityEvent) { got <- e.Type })
	}()

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Publish(ctx, event(models.EventReportSubmitted, "")))
	require.NoError(t, bus.Publish(ctx, event(models.EventBlacklistUpdated, "+2348031234567")))

	select {
	case typ := <-got:
		assert.Equal(t, models.EventBlacklistUpdated, typ)
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	<-done
	assert.Equal(t, 0, bus.SubscriberCount())
}

func dialHub(t *testing.T, hub *WebSocketHub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWebSocket(w, r, "viewer")
	}))
	t.Cleanup(srv.Close)

	before := hub.ClientCount()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestPublisherAdapterReachesWebSocketClients(t *testing.T) {
	hub := NewWebSocketHub(logger.Nop(), phoneintel.NewNormalizer("NG"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)

	pub := NewEventBusPublisher(NewEventBus(nil, logger.Nop()), hub)
	sent := event(models.EventReportSubmitted, "+2348031234567")
	require.NoError(t, pub.Publish(ctx, sent))

	f := readFrame(t, conn)
	assert.Equal(t, FrameEvent, f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, sent.ID, f.Event.ID)
	assert.Equal(t, models.EventReportSubmitted, f.Event.Type)

	stats := hub.Stats()
	assert.Equal(t, 1, stats.Clients)
	assert.Equal(t, 1, stats.Users)
}

func TestLiveFeedSubscribeNarrowsEvents(t *testing.T) {
	hub := NewWebSocketHub(logger.Nop(), phoneintel.NewNormalizer("NG"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientCommand{
		Action: "subscribe",
		Filter: &Subscription{Phone: "0809 999 9999"},
	}))
	ack := readFrame(t, conn)
	assert.Equal(t, FrameSubscribed, ack.Type)
	require.NotNil(t, ack.Filter)
	assert.Equal(t, "+2348099999999", ack.Filter.Phone)

	hub.BroadcastEvent(event(models.EventBlacklistUpdated, "+2348031234567"))
	wanted := event(models.EventBlacklistUpdated, "+2348099999999")
	hub.BroadcastEvent(wanted)

	f := readFrame(t, conn)
	require.NotNil(t, f.Event)
	assert.Equal(t, wanted.ID, f.Event.ID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientCommand{Action: "shout"}))
	assert.Equal(t, FrameError, readFrame(t, conn).Type)
}
