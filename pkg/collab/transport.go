package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

// ErrConnectionClosed the websocket connection is gone; the session keeps
// its pending queue and can Resync over a new transport.
var ErrConnectionClosed = errors.New("collab: connection closed")

// ChangeBroadcast is a change fanned out by the server for another client's
// push.
type ChangeBroadcast struct {
	ChangesetID string `json:"changesetId"`
	Version     int64  `json:"version"`
	Change      Change `json:"change"`
}

// WSTransportConfig configures a websocket transport.
type WSTransportConfig struct {
	// Addr is the sync endpoint, e.g. ws://host:9000/api/sync.
	Addr string
	// Token is the opaque session token sent as the Authorization message.
	Token string
	// RequestTimeout bounds each request round trip. Defaults to 10s.
	RequestTimeout time.Duration
	// OnBroadcast receives ChangeBroadcast frames pushed by the server.
	OnBroadcast func(ChangeBroadcast)

	Logger *zap.Logger
}

type wireRes struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Details string          `json:"details,omitempty"`
}

type wireFetchResponse struct {
	ChangesetID  string   `json:"changesetId"`
	SinceVersion int64    `json:"sinceVersion"`
	HeadVersion  int64    `json:"headVersion"`
	Changes      []Change `json:"changes"`
}

type wirePushResponse struct {
	ChangesetID string `json:"changesetId"`
	Position    int64  `json:"position"`
	Version     int64  `json:"version"`
}

// WSTransport speaks the server's "Type|payload" websocket framing.
// Responses carry the request's action name, so one request per action may
// be in flight at a time; the Session serializes its calls anyway.
type WSTransport struct {
	conn    *gws.Conn
	config  WSTransportConfig
	logger  *zap.Logger
	mu      sync.Mutex
	waiters map[string]chan wireRes
	closed  chan struct{}
	once    sync.Once
}

// DialWS connects, authenticates and returns a ready transport.
func DialWS(ctx context.Context, config WSTransportConfig) (*WSTransport, error) {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	t := &WSTransport{
		config:  config,
		logger:  config.Logger,
		waiters: make(map[string]chan wireRes),
		closed:  make(chan struct{}),
	}

	conn, _, err := gws.NewClient(t, &gws.ClientOption{
		Addr: config.Addr,
		PermessageDeflate: gws.PermessageDeflate{
			Enabled: true,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial sync endpoint")
	}
	t.conn = conn
	go conn.ReadLoop()

	ch := t.addWaiter("Authorization")
	if err := t.write("Authorization", []byte(config.Token)); err != nil {
		t.Close()
		return nil, err
	}
	if _, err := t.await(ctx, "Authorization", ch); err != nil {
		t.Close()
		return nil, errors.Wrap(err, "authorization")
	}
	return t, nil
}

// FetchChanges implements Transport.
func (t *WSTransport) FetchChanges(ctx context.Context, changesetID string, sinceVersion int64) (int64, []Change, error) {
	req := map[string]any{"changesetId": changesetID, "sinceVersion": sinceVersion}
	res, err := t.request(ctx, "FetchChanges", req)
	if err != nil {
		return 0, nil, err
	}
	var page wireFetchResponse
	if err := json.Unmarshal(res.Data, &page); err != nil {
		return 0, nil, errors.Wrap(err, "decode fetch response")
	}
	return page.HeadVersion, page.Changes, nil
}

// PushChange implements Transport.
func (t *WSTransport) PushChange(ctx context.Context, changesetID string, ops json.RawMessage) (int64, error) {
	req := map[string]any{
		"changesetId": changesetID,
		"ops":         ops,
		"timestamp":   time.Now().UnixMilli(),
	}
	res, err := t.request(ctx, "PushChange", req)
	if err != nil {
		return 0, err
	}
	var ack wirePushResponse
	if err := json.Unmarshal(res.Data, &ack); err != nil {
		return 0, errors.Wrap(err, "decode push response")
	}
	return ack.Version, nil
}

// Open subscribes the connection to a changeset's broadcast group and
// returns its head version.
func (t *WSTransport) Open(ctx context.Context, changesetID string) (int64, error) {
	res, err := t.request(ctx, "ChangesetOpen", map[string]any{"changesetId": changesetID})
	if err != nil {
		return 0, err
	}
	var v struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(res.Data, &v); err != nil {
		return 0, errors.Wrap(err, "decode open response")
	}
	return v.Version, nil
}

// CloseChangeset leaves a changeset's broadcast group.
func (t *WSTransport) CloseChangeset(ctx context.Context, changesetID string) error {
	_, err := t.request(ctx, "ChangesetClose", map[string]any{"changesetId": changesetID})
	return err
}

// Close tears down the connection.
func (t *WSTransport) Close() {
	t.once.Do(func() {
		close(t.closed)
		if t.conn != nil {
			t.conn.WriteClose(1000, []byte("ClientClose"))
		}
	})
}

func (t *WSTransport) request(ctx context.Context, action string, payload any) (wireRes, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return wireRes{}, errors.Wrapf(err, "marshal %s request", action)
	}

	ch := t.addWaiter(action)
	if err := t.write(action, data); err != nil {
		t.removeWaiter(action, ch)
		return wireRes{}, err
	}
	return t.await(ctx, action, ch)
}

func (t *WSTransport) write(action string, payload []byte) error {
	select {
	case <-t.closed:
		return ErrConnectionClosed
	default:
	}
	frame := []byte(fmt.Sprintf("%s|%s", action, payload))
	if err := t.conn.WriteMessage(gws.OpcodeText, frame); err != nil {
		return errors.Wrapf(err, "write %s", action)
	}
	return nil
}

func (t *WSTransport) await(ctx context.Context, action string, ch chan wireRes) (wireRes, error) {
	timer := time.NewTimer(t.config.RequestTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !res.Status {
			msg := res.Message
			if res.Details != "" {
				msg = msg + ": " + res.Details
			}
			return res, errors.Errorf("%s failed: %s (code %d)", action, msg, res.Code)
		}
		return res, nil
	case <-ctx.Done():
		t.removeWaiter(action, ch)
		return wireRes{}, ctx.Err()
	case <-timer.C:
		t.removeWaiter(action, ch)
		return wireRes{}, errors.Errorf("%s timed out", action)
	case <-t.closed:
		return wireRes{}, ErrConnectionClosed
	}
}

func (t *WSTransport) addWaiter(action string) chan wireRes {
	ch := make(chan wireRes, 1)
	t.mu.Lock()
	t.waiters[action] = ch
	t.mu.Unlock()
	return ch
}

func (t *WSTransport) removeWaiter(action string, ch chan wireRes) {
	t.mu.Lock()
	if t.waiters[action] == ch {
		delete(t.waiters, action)
	}
	t.mu.Unlock()
}

func (t *WSTransport) OnOpen(conn *gws.Conn) {}

func (t *WSTransport) OnClose(conn *gws.Conn, err error) {
	t.once.Do(func() { close(t.closed) })
	if err != nil {
		t.logger.Warn("connection closed", zap.Error(err))
	}
}

func (t *WSTransport) OnPing(conn *gws.Conn, payload []byte) {
	_ = conn.WritePong(nil)
}

func (t *WSTransport) OnPong(conn *gws.Conn, payload []byte) {}

func (t *WSTransport) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}

	raw := message.Data.String()
	index := strings.Index(raw, "|")
	if index == -1 {
		t.logger.Warn("unframed message", zap.String("raw", raw))
		return
	}
	action := raw[:index]

	var res wireRes
	if err := json.Unmarshal([]byte(raw[index+1:]), &res); err != nil {
		t.logger.Warn("undecodable response", zap.String("action", action), zap.Error(err))
		return
	}

	if action == "ChangeBroadcast" {
		if t.config.OnBroadcast == nil {
			return
		}
		var bc ChangeBroadcast
		if err := json.Unmarshal(res.Data, &bc); err != nil {
			t.logger.Warn("undecodable broadcast", zap.Error(err))
			return
		}
		t.config.OnBroadcast(bc)
		return
	}

	t.mu.Lock()
	ch := t.waiters[action]
	delete(t.waiters, action)
	t.mu.Unlock()

	if ch != nil {
		ch <- res
	} else {
		t.logger.Debug("unexpected response", zap.String("action", action))
	}
}
