package application

// Notifications are application-level signals pushed alongside domain
// events. They carry no state change and are not persisted; relayers use
// them as hints only.

// CoordinationWindowOpen tells relayers that a buffered transaction has
// reached its target timestamp and may now be resolved.
type CoordinationWindowOpen struct {
	TxID            string
	TargetTimestamp int64
}

func (e CoordinationWindowOpen) GetTopic() string {
	return "notification"
}
