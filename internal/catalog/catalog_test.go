package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquahimiya/catalogd/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(topic string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, args[0].(Event))
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Topic)
	}
	return out
}

type fixture struct {
	store      *store.Store
	events     *recordingPublisher
	products   *ProductRepository
	categories *CategoryRepository
	settings   *SettingsRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	events := &recordingPublisher{}
	products := NewProductRepository(st, events)
	return &fixture{
		store:      st,
		events:     events,
		products:   products,
		categories: NewCategoryRepository(st, products, events),
		settings:   NewSettingsRepository(st, events, SettingsOptions{BootstrapPassword: "admin123"}),
	}
}
