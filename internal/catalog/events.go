// Package catalog holds the typed repositories over the entity store.
package catalog

const (
	TopicProductCreated  = "catalog:product:created"
	TopicProductUpdated  = "catalog:product:updated"
	TopicProductDeleted  = "catalog:product:deleted"
	TopicCategoryCreated = "catalog:category:created"
	TopicCategoryUpdated = "catalog:category:updated"
	TopicCategoryDeleted = "catalog:category:deleted"
	TopicSettingsUpdated = "catalog:settings:updated"
	TopicPasswordChanged = "catalog:settings:password"
)

// Topics lists every topic the repositories publish on.
var Topics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductDeleted,
	TopicCategoryCreated,
	TopicCategoryUpdated,
	TopicCategoryDeleted,
	TopicSettingsUpdated,
	TopicPasswordChanged,
}

// Event is the single argument published with every topic.
type Event struct {
	Topic string
	ID    string
	Name  string
	// Affected counts secondary records touched, e.g. products reassigned
	// by a category delete.
	Affected int
}

// Publisher is satisfied by EventBus.Bus.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func publish(p Publisher, ev Event) {
	p.Publish(ev.Topic, ev)
}
