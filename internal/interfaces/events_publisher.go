package interfaces

// EventPublisher delivers post-commit events to interested consumers. The
// key groups related events onto one partition; the engine keys by account.
type EventPublisher interface {
	Publish(topic, key string, event any) error
}
