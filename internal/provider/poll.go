package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablekit/gridcore/internal/griderr"
	"github.com/tablekit/gridcore/internal/logging"
	"github.com/tablekit/gridcore/internal/model"
)

// maxSnapshotBody bounds how much of a poll response is read.
const maxSnapshotBody = 32 << 20

// pollProvider issues a parameterized HTTP request expecting a
// snapshot-shaped JSON response. A positive PollMs repeats the request on a
// ticker; the in-flight request is cancelled before each new one starts and
// when the provider stops.
type pollProvider struct {
	src    model.DataSource
	sink   Sink
	client *http.Client

	mu            sync.Mutex
	cancel        context.CancelFunc // cancels the provider loop
	requestCancel context.CancelFunc // cancels the in-flight request
	stopped       bool
}

func newPoll(src model.DataSource, sink Sink) Provider {
	return &pollProvider{
		src:    src,
		sink:   sink,
		client: &http.Client{},
	}
}

func (p *pollProvider) Kind() string { return "poll" }

func (p *pollProvider) Start(ctx context.Context) error {
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

func (p *pollProvider) run(ctx context.Context) {
	logger := logging.ComponentLogger(logging.FromContext(ctx), "provider.poll")

	p.fetchOnce(ctx, logger)

	if p.src.PollMs <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(p.src.PollMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchOnce(ctx, logger)
		}
	}
}

// fetchOnce performs a single request cycle. Any request still in flight
// from the previous cycle is cancelled first.
func (p *pollProvider) fetchOnce(ctx context.Context, logger zerolog.Logger) {
	reqCtx, reqCancel := context.WithCancel(ctx)

	p.mu.Lock()
	if prev := p.requestCancel; prev != nil {
		prev()
	}
	p.requestCancel = reqCancel
	p.mu.Unlock()

	snap, err := p.fetch(reqCtx)
	reqCancel()

	if ctx.Err() != nil {
		// Provider was stopped mid-request; discard the result.
		return
	}
	if err != nil {
		logger.Warn().Str("url", p.src.URL).Err(err).Msg("poll request failed")
		p.sink.SetError(err.Error())
		return
	}
	logger.Debug().Str("url", p.src.URL).Int("rows", len(snap.Rows)).Msg("poll snapshot received")
	p.sink.SetSnapshot(*snap)
}

func (p *pollProvider) fetch(ctx context.Context) (*model.Snapshot, error) {
	method := p.src.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if p.src.BodyJSON != "" {
		body = strings.NewReader(p.src.BodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.src.URL, body)
	if err != nil {
		return nil, griderr.NewProviderError("poll", fmt.Sprintf("Fetch failed: %v", err), err)
	}
	for k, v := range p.src.Headers {
		req.Header.Set(k, v)
	}
	if p.src.BodyJSON != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, griderr.NewProviderError("poll", fmt.Sprintf("Fetch failed: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, griderr.NewProviderError("poll", fmt.Sprintf("Fetch failed: HTTP %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBody))
	if err != nil {
		return nil, griderr.NewProviderError("poll", fmt.Sprintf("Fetch failed: %v", err), err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, griderr.NewProviderError("poll", fmt.Sprintf("Fetch failed: %v", err), err)
	}
	return &snap, nil
}

func (p *pollProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.requestCancel != nil {
		p.requestCancel()
		p.requestCancel = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
