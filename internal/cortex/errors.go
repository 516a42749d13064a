package cortex

import "errors"

var (
	ErrLifecycleOrder           = errors.New("cortex: invalid lifecycle transition")
	ErrAllocation               = errors.New("cortex: memory allocation failed")
	ErrInvalidHeartbeatInterval = errors.New("cortex: invalid heartbeat interval")
	ErrInvalidConfig            = errors.New("cortex: invalid config")
	ErrNotActive                = errors.New("cortex: engine not active")
	ErrExchangePanic            = errors.New("cortex: driver exchange panicked")
)
