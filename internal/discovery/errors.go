package discovery

import "errors"

var (
	errDestroyed   = errors.New("discovery service destroyed")
	errNoEndpoints = errors.New("discovery: no endpoints available")
)
