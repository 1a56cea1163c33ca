package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
)

// Incremental stream message types.
const (
	msgSetSnapshot = "setSnapshot"
	msgSetRows     = "setRows"
	msgUpsertRows  = "upsertRows"
)

// streamProvider opens a persistent websocket subscription and dispatches
// arriving JSON messages by type. Unrecognized message shapes are ignored
// silently; connection failures set the error status.
type streamProvider struct {
	src  model.DataSource
	sink Sink

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	stopped bool
}

func newStream(src model.DataSource, sink Sink) Provider {
	return &streamProvider{src: src, sink: sink}
}

func (p *streamProvider) Kind() string { return "stream" }

func (p *streamProvider) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		cancel()
		return nil
	}
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(loopCtx)
	return nil
}

func (p *streamProvider) run(ctx context.Context) {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "provider.stream")

	endpoint, err := wsEndpoint(p.src.URL)
	if err != nil {
		p.sink.SetError(fmt.Sprintf("Stream failed: %v", err))
		return
	}

	header := http.Header{}
	for k, v := range p.src.Headers {
		header.Set(k, v)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if ctx.Err() == nil {
			perr := griderr.NewProviderError("stream", fmt.Sprintf("Stream failed: %v", err), err)
			logger.Warn().Str("url", endpoint).Err(err).Msg("stream connect failed")
			p.sink.SetError(perr.Error())
		}
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	p.conn = conn
	p.mu.Unlock()

	logger.Debug().Str("url", endpoint).Msg("stream connected")

	// Close the socket when the cycle ends so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if ctx.Err() == nil {
				perr := griderr.NewProviderError("stream", fmt.Sprintf("Stream failed: %v", readErr), readErr)
				logger.Warn().Err(readErr).Msg("stream read failed")
				p.sink.SetError(perr.Error())
			}
			return
		}
		p.dispatch(logger, data)
	}
}

// dispatch applies one stream message to the sink. Messages that do not
// match the expected shape are dropped without touching the model status.
func (p *streamProvider) dispatch(logger zerolog.Logger, data []byte) {
	if !gjson.ValidBytes(data) {
		logger.Debug().Msg("ignoring non-JSON stream message")
		return
	}
	msg := gjson.ParseBytes(data)

	// When an event name is configured, enveloped messages for other
	// events are not ours to apply.
	if p.src.EventName != "" {
		if event := msg.Get("event"); event.Exists() && event.String() != p.src.EventName {
			return
		}
	}

	switch msg.Get("type").String() {
	case msgSetSnapshot:
		raw := msg.Get("snapshot").Raw
		if raw == "" {
			return
		}
		var snap model.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			logger.Debug().Err(err).Msg("ignoring malformed setSnapshot message")
			return
		}
		p.sink.SetSnapshot(snap)
	case msgSetRows:
		rows, ok := decodeRows(msg)
		if !ok {
			logger.Debug().Msg("ignoring malformed setRows message")
			return
		}
		p.sink.SetRows(rows)
	case msgUpsertRows:
		rows, ok := decodeRows(msg)
		if !ok {
			logger.Debug().Msg("ignoring malformed upsertRows message")
			return
		}
		p.sink.UpsertRows(rows)
	default:
		// Unrecognized message shapes are ignored silently.
	}
}

func decodeRows(msg gjson.Result) ([]model.Row, bool) {
	raw := msg.Get("rows").Raw
	if raw == "" {
		return nil, false
	}
	var rows []model.Row
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// wsEndpoint normalizes an http(s) subscription URL to the ws(s) scheme.
func wsEndpoint(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported stream scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func (p *streamProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
