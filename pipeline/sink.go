package pipeline

import (
	"go.uber.org/multierr"

	iface "DetBlur/interface"
)

// MultiSink shows every frame on all of its sinks in order. Any sink may ask to quit.
type MultiSink []iface.Sink

var _ iface.Sink = MultiSink(nil)

func (m MultiSink) Show(f iface.Frame, overlay string) (bool, error) {
	var (
		quit bool
		errs error
	)
	for _, s := range m {
		q, err := s.Show(f, overlay)
		quit = quit || q
		errs = multierr.Append(errs, err)
	}
	return quit, errs
}

func (m MultiSink) Close() error {
	var errs error
	for _, s := range m {
		errs = multierr.Append(errs, s.Close())
	}
	return errs
}
