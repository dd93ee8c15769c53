package broker

import "fmt"

// Topology exchange plus per-service queues.
// Declaring it again with the same arguments is a no-op on the broker.
type Topology struct {
	Exchange     string
	ExchangeType string
	Durable      bool
	Queues       map[string]QueueBinding
}

// DeclareExchange declares the exchange
func (t Topology) DeclareExchange(ch Channel) error {
	err := ch.ExchangeDeclare(
		t.Exchange,
		t.ExchangeType,
		t.Durable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	return nil
}

// DeclareQueue declares the queue of service and binds every binding key.
// Returns the queue name and whether it is exclusive.
func (t Topology) DeclareQueue(ch Channel, service string) (string, bool, error) {
	binding, ok := t.Queues[service]
	if !ok {
		return "", false, fmt.Errorf("no queue configured for service %q", service)
	}

	exclusive := binding.Name == ""
	durable := t.Durable && !exclusive

	q, err := ch.QueueDeclare(
		binding.Name,
		durable,
		exclusive, // auto-delete
		exclusive,
		false, // no-wait
		nil,
	)
	if err != nil {
		return "", false, fmt.Errorf("declare queue %q: %w", binding.Name, err)
	}

	for _, key := range binding.BindingKeys {
		if err := ch.QueueBind(q.Name, key, t.Exchange, false, nil); err != nil {
			return "", false, fmt.Errorf("bind queue %s to %s with %s: %w", q.Name, t.Exchange, key, err)
		}
	}

	return q.Name, exclusive, nil
}
