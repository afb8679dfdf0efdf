package msg

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// Option configures a Pool.
type Option func(p *Pool)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithEventSink sets the sink that receives alloc, release and exhaustion
// events.
func WithEventSink(sink types.EventSink) Option {
	return func(p *Pool) { p.sink = sink }
}
