package provider

import (
	"context"

	"github.com/tablekit/gridcore/internal/model"
)

// staticProvider republishes an embedded snapshot unchanged. Start is
// synchronous: by the time it returns the model is ready.
type staticProvider struct {
	src  model.DataSource
	sink Sink
}

func newStatic(src model.DataSource, sink Sink) Provider {
	return &staticProvider{src: src, sink: sink}
}

func (p *staticProvider) Kind() string { return "static" }

func (p *staticProvider) Start(_ context.Context) error {
	var snap model.Snapshot
	if p.src.Snapshot != nil {
		snap = *p.src.Snapshot
	}
	p.sink.SetSnapshot(snap)
	return nil
}

func (p *staticProvider) Stop() {}
