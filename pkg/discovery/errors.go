package discovery

import "errors"

var (
	// ErrNoInterfaces is returned by DiscoverAllInterfaces when no local
	// interface is up, broadcast-capable and has an IPv4 address.
	ErrNoInterfaces = errors.New("discovery: no broadcast-capable interfaces")
)
