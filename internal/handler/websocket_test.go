package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/benefits-example/internal/events"
	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// mockSubscriber records subscriptions and hands out channels it controls.
type mockSubscriber struct {
	err    error
	topics [][]string
	feeds  chan chan model.EmployeeEvent
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{feeds: make(chan chan model.EmployeeEvent, 8)}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topics ...string) (<-chan model.EmployeeEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.topics = append(m.topics, topics)
	ch := make(chan model.EmployeeEvent, 8)
	m.feeds <- ch
	return ch, nil
}

func (m *mockSubscriber) nextFeed(t *testing.T) chan model.EmployeeEvent {
	t.Helper()
	select {
	case ch := <-m.feeds:
		return ch
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription made")
	}
	return nil
}

func wsURL(server *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(server.URL, "http")
	if query != "" {
		u += "?" + query
	}
	return u
}

func waitForClients(t *testing.T, h *WebSocketHandler, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewWebSocketHandler(t *testing.T) {
	// Act
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())

	// Assert
	if handler == nil {
		t.Fatal("NewWebSocketHandler() returned nil")
	}
	if handler.clients == nil {
		t.Error("clients map should be initialized")
	}
	if handler.subscriber == nil {
		t.Error("subscriber should not be nil")
	}
}

func TestWebSocketHandler_RegisterRoutes(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())
	router := mux.NewRouter()

	// Act
	handler.RegisterRoutes(router)

	// Assert
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code == http.StatusNotFound {
		t.Error("Route /ws not found")
	}
}

func TestWebSocketHandler_StreamsEvents(t *testing.T) {
	// Arrange
	sub := newMockSubscriber()
	handler := NewWebSocketHandler(sub, zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer func() {
		handler.CloseAllConnections()
		server.Close()
	}()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}

	feed := sub.nextFeed(t)

	// Act
	feed <- model.EmployeeEvent{ID: "evt-1", Type: model.EventEmployeeCreated, EmployeeID: "abc"}

	// Assert
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event model.EmployeeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if event.ID != "evt-1" || event.Type != model.EventEmployeeCreated || event.EmployeeID != "abc" {
		t.Errorf("received %+v", event)
	}
	if len(sub.topics[0]) != len(model.EventTypes) {
		t.Errorf("subscribed to %v, want all event types", sub.topics[0])
	}
}

func TestWebSocketHandler_TypesFilter(t *testing.T) {
	// Arrange
	sub := newMockSubscriber()
	handler := NewWebSocketHandler(sub, zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer func() {
		handler.CloseAllConnections()
		server.Close()
	}()

	// Act
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "types=employee.deleted,employee.deleted"), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	sub.nextFeed(t)

	// Assert
	if len(sub.topics) != 1 || len(sub.topics[0]) != 1 || sub.topics[0][0] != model.EventEmployeeDeleted {
		t.Errorf("subscribed to %v, want [employee.deleted]", sub.topics)
	}
}

func TestWebSocketHandler_RejectsUnknownType(t *testing.T) {
	// Arrange
	sub := newMockSubscriber()
	handler := NewWebSocketHandler(sub, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/ws?types=employee.fired", nil)
	rr := httptest.NewRecorder()

	// Act
	handler.HandleWebSocket(rr, req)

	// Assert
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if len(sub.topics) != 0 {
		t.Error("no subscription should be made for an invalid request")
	}
}

func TestWebSocketHandler_SubscribeFailure(t *testing.T) {
	// Arrange
	sub := newMockSubscriber()
	sub.err = errors.New("bus closed")
	handler := NewWebSocketHandler(sub, zap.NewNop())
	rr := httptest.NewRecorder()

	// Act
	handler.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))

	// Assert
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestWebSocketHandler_InvalidUpgrade(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())
	rr := httptest.NewRecorder()

	// Act: a plain GET without upgrade headers
	handler.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))

	// Assert
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if handler.ClientCount() != 0 {
		t.Error("failed upgrade should not register a client")
	}
}

func TestWebSocketHandler_FeedClosedClosesConnection(t *testing.T) {
	// Arrange
	sub := newMockSubscriber()
	handler := NewWebSocketHandler(sub, zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Act
	close(sub.nextFeed(t))

	// Assert
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() error = %v, want normal close", err)
	}
}

func TestWebSocketHandler_ClientDisconnect(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	waitForClients(t, handler, 1)

	// Act
	conn.Close()

	// Assert
	waitForClients(t, handler, 0)
}

func TestWebSocketHandler_CloseAllConnections(t *testing.T) {
	// Arrange
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	conns := make([]*websocket.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, handler, 3)

	// Act
	handler.CloseAllConnections()

	// Assert
	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
	for i, conn := range conns {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Errorf("client %d: expected connection to be closed", i)
		}
	}
}

func TestWebSocketHandler_CloseAllConnections_Empty(t *testing.T) {
	handler := NewWebSocketHandler(newMockSubscriber(), zap.NewNop())

	// Should not panic with no clients.
	handler.CloseAllConnections()
}

func TestWebSocketHandler_WithEventBus(t *testing.T) {
	// Arrange
	bus := events.NewBus(zap.NewNop())
	defer bus.Close()

	handler := NewWebSocketHandler(bus, zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer func() {
		handler.CloseAllConnections()
		server.Close()
	}()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "types=employee.updated"), nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	waitForClients(t, handler, 1)

	// Act
	_ = bus.Publish(context.Background(), model.EmployeeEvent{ID: "1", Type: model.EventEmployeeCreated, EmployeeID: "a"})
	_ = bus.Publish(context.Background(), model.EmployeeEvent{ID: "2", Type: model.EventEmployeeUpdated, EmployeeID: "b"})

	// Assert
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event model.EmployeeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if event.Type != model.EventEmployeeUpdated || event.EmployeeID != "b" {
		t.Errorf("received %+v, want the update event only", event)
	}
}

func TestParseEventTypes(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []string
		wantOK bool
	}{
		{"empty selects all", "", model.EventTypes, true},
		{"single", "employee.created", []string{"employee.created"}, true},
		{"trims and dedupes", " employee.created , employee.deleted,employee.created", []string{"employee.created", "employee.deleted"}, true},
		{"only separators", ",,", model.EventTypes, true},
		{"unknown", "employee.created,bogus", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseEventTypes(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("parseEventTypes() ok = %v, want %v", ok, tt.wantOK)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseEventTypes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocketConstants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod (%v) should be less than pongWait (%v)", pingPeriod, pongWait)
	}
	if maxMessageSize <= 0 {
		t.Error("maxMessageSize should be positive")
	}
}
