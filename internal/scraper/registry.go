package scraper

import (
	"fmt"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// New builds the adapter for source.
func New(source event.Source, opts Options) (Adapter, error) {
	switch source {
	case event.SourceIBJJF:
		return NewIBJJF(opts), nil
	case event.SourceJJWL:
		return NewJJWL(opts), nil
	case event.SourceAGF:
		return NewAGF(opts), nil
	case event.SourceNAGA:
		return NewNAGA(opts), nil
	case event.SourceADCC:
		return NewADCC(opts), nil
	default:
		return nil, fmt.Errorf("no adapter for source %q", source)
	}
}

// NewAll builds adapters for sources in order, or for every known source
// when sources is empty. optsFor supplies per-source options.
func NewAll(sources []event.Source, optsFor func(event.Source) Options) ([]Adapter, error) {
	if len(sources) == 0 {
		sources = event.Sources
	}
	if optsFor == nil {
		optsFor = func(event.Source) Options { return Options{} }
	}

	adapters := make([]Adapter, 0, len(sources))
	seen := make(map[event.Source]bool, len(sources))
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true

		a, err := New(s, optsFor(s))
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
