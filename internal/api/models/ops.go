package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status                 HealthStatus      `json:"status"`
	Time                   Timestamp         `json:"time"`
	Subsystems             []SubsystemStatus `json:"subsystems"`
	Providers              []ProviderStatus  `json:"providers"`
	Caches                 []CacheStatus     `json:"caches"`
	ActiveDegradationFlags []string          `json:"active_degradation_flags,omitempty"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuit_state"`
	LastSuccessAt *Timestamp   `json:"last_success_at,omitempty"`
	LastFailureAt *Timestamp   `json:"last_failure_at,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// CacheStatus describes one in-process cache.
type CacheStatus struct {
	Name         string `json:"name"`
	Entries      int    `json:"entries"`
	FreshEntries int    `json:"fresh_entries"`
	Hits         *int64 `json:"hits,omitempty"`
	Misses       *int64 `json:"misses,omitempty"`
	TTLSeconds   int    `json:"ttl_seconds,omitempty"`
}

// CacheInvalidation reports the result of an admin cache purge.
type CacheInvalidation struct {
	Assessments int       `json:"assessments"`
	Weather     bool      `json:"weather"`
	Flags       bool      `json:"feature_flags"`
	Time        Timestamp `json:"time"`
}
