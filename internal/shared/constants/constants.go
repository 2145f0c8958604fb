package constants

import "time"

const (
	// ProbeTimeout bounds a single signature probe. Tuned, not configurable.
	ProbeTimeout = 1000 * time.Millisecond
	// CatalogBindingKey is the global the signature bundle binds its catalog to.
	// Bump the suffix whenever the bundle shape changes.
	CatalogBindingKey = "__secaStackSignatures_v1"
)

const (
	// NetworkResponseReceived is the CDP event carrying response headers.
	NetworkResponseReceived = "Network.responseReceived"
	// ResourceTypeDocument marks the primary navigation response.
	ResourceTypeDocument = "Document"
)

const (
	// DefaultPageTimeout caps navigation plus detection for one page.
	DefaultPageTimeout = 45 * time.Second
	// DefaultSettleTime is how long to wait after load before probing.
	DefaultSettleTime = 500 * time.Millisecond
)
