package events

// ConfigReloadEvent contains data for config reload events.
type ConfigReloadEvent struct {
	// ChangedSections lists which config sections were modified.
	ChangedSections []string

	// Error is set for ConfigReloadFailed events.
	Error string
}

// NewConfigReloaded creates a ConfigReloaded event.
func NewConfigReloaded(changedSections []string) Event {
	return NewEvent(ConfigReloaded, &ConfigReloadEvent{
		ChangedSections: changedSections,
	})
}

// NewConfigReloadFailed creates a ConfigReloadFailed event.
func NewConfigReloadFailed(err error) Event {
	return NewEvent(ConfigReloadFailed, &ConfigReloadEvent{
		Error: errorString(err),
	})
}
