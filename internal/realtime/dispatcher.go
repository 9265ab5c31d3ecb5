package realtime

import "log/slog"

// Dispatcher delivers events to every live connection of a user in one registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// DeliverToUser returns the number of connections that accepted the event. An offline user
// gets nothing and the caller is expected to have persisted the payload already.
func (d *Dispatcher) DeliverToUser(userID, event string, payload any) int {
	delivered := 0
	for _, c := range d.registry.Connections(userID) {
		if err := c.Send(event, payload); err != nil {
			d.logger.Debug("Dropped event for connection", "user_id", userID, "conn_id", c.ID(), "event", event, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
