// Package transport owns the real-time connection to the chat broker.
// One Adapter exists per session: it subscribes to the per-user topic
// and delivers inbound messages on a typed channel that the directory,
// thread and read reconciler all consume.
package transport

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/pkg/wire"
)

const defaultReconnectDelay = 5 * time.Second

// Adapter maintains a single websocket connection to the broker.
type Adapter struct {
	brokerURL string
	token     string
	handle    string
	connID    string

	conn     *websocket.Conn
	events   chan wire.Message
	mu       sync.RWMutex
	wmu      sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	reconnectDelay time.Duration
}

// New creates an adapter for the broker at brokerURL, authenticating
// with token and subscribing to handle's topic once connected.
func New(brokerURL, token, handle string) *Adapter {
	return &Adapter{
		brokerURL:      brokerURL,
		token:          token,
		handle:         handle,
		connID:         uuid.NewString(),
		events:         make(chan wire.Message, 10),
		done:           make(chan struct{}),
		reconnectDelay: defaultReconnectDelay,
	}
}

// SetReconnectDelay overrides the delay between reconnection attempts.
func (a *Adapter) SetReconnectDelay(d time.Duration) {
	a.reconnectDelay = d
}

// Connect establishes the connection and starts delivering events.
// Calling Connect on an already-started adapter is a no-op, so at most
// one connection ever exists per session. A failed initial dial is
// returned to the caller but still hands the connection to the retry
// loop, so a backend that is down at launch is picked up once it comes
// back.
func (a *Adapter) Connect() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	err := a.dial()
	if err != nil {
		logger.Log.Warn("initial broker connect failed, retrying",
			"conn_id", a.connID, "error", err)
	}

	a.wg.Add(1)
	go a.run()

	return err
}

// Events returns the channel inbound messages are delivered on. The
// channel is closed when the adapter is closed.
func (a *Adapter) Events() <-chan wire.Message {
	return a.events
}

// IsConnected reports whether a live connection currently exists.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conn != nil
}

// Publish sends msg to the broker's shared inbound topic. Delivery is
// fire-and-forget: the caller must treat its local copy as optimistic
// until the broker echoes the message back with an id. When no
// connection exists the message is dropped, not queued.
func (a *Adapter) Publish(msg *wire.Message) {
	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil {
		logger.Log.Debug("dropping publish while disconnected",
			"conn_id", a.connID, "receiver", msg.Receiver)
		return
	}

	frame, err := wire.PublishFrame(wire.PublishTopic, msg)
	if err != nil {
		logger.Log.Error("failed to build publish frame", "conn_id", a.connID, "error", err)
		return
	}

	if err := a.writeFrame(conn, frame); err != nil {
		logger.Log.Warn("failed to publish message", "conn_id", a.connID, "error", err)
	}
}

// Close tears the connection down and closes the event channel.
// Idempotent; called on logout and program exit.
func (a *Adapter) Close() {
	var closed bool
	a.doneOnce.Do(func() {
		closed = true
		close(a.done)
	})
	if !closed {
		return
	}

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	a.wg.Wait()
	close(a.events)
}

// dial opens a connection and subscribes to the per-user topic.
func (a *Adapter) dial() error {
	u, err := url.Parse(a.brokerURL)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}
	q := u.Query()
	q.Set("token", a.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	sub := wire.SubscribeFrame(wire.UserTopic(a.handle))
	if err := a.writeFrame(conn, sub); err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	logger.Log.Info("connected to broker", "conn_id", a.connID, "topic", sub.Topic)
	return nil
}

// run receives until the connection drops, then keeps redialing with a
// fixed delay until the adapter is closed. It also owns redialing when
// the initial dial never succeeded.
func (a *Adapter) run() {
	defer a.wg.Done()

	for {
		a.receive()

		select {
		case <-a.done:
			return
		default:
		}

		logger.Log.Warn("broker connection down, retrying",
			"conn_id", a.connID, "delay", a.reconnectDelay)

		select {
		case <-time.After(a.reconnectDelay):
		case <-a.done:
			return
		}

		if err := a.dial(); err != nil {
			logger.Log.Warn("reconnect failed", "conn_id", a.connID, "error", err)
		}
	}
}

// receive reads frames from the current connection and delivers
// message bodies until the connection errors out.
func (a *Adapter) receive() {
	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-a.done:
			default:
				logger.Log.Warn("broker read failed", "conn_id", a.connID, "error", err)
			}
			a.mu.Lock()
			if a.conn == conn {
				a.conn.Close()
				a.conn = nil
			}
			a.mu.Unlock()
			return
		}

		var frame wire.Frame
		if err := frame.Decode(data); err != nil {
			logger.Log.Warn("failed to decode frame", "conn_id", a.connID, "error", err)
			continue
		}
		if frame.Op != wire.OpMessage {
			logger.Log.Debug("ignoring frame", "conn_id", a.connID, "op", frame.Op)
			continue
		}

		var msg wire.Message
		if err := msg.Decode(frame.Body); err != nil {
			logger.Log.Warn("failed to decode message body", "conn_id", a.connID, "error", err)
			continue
		}

		select {
		case a.events <- msg:
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) writeFrame(conn *websocket.Conn, frame wire.Frame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	a.wmu.Lock()
	defer a.wmu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}
