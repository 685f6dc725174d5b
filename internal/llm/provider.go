package llm

import (
	"fmt"
	"time"
)

const (
	TransportHTTP = "http"
	TransportSDK  = "sdk"
)

// NewProvider builds the provider selected by transport.
func NewProvider(transport, endpoint, token string, timeout time.Duration) (Provider, error) {
	switch transport {
	case "", TransportHTTP:
		return NewHTTPProvider(endpoint, token, timeout)
	case TransportSDK:
		return NewSDKProvider(endpoint, token, timeout)
	default:
		return nil, fmt.Errorf("unknown llm transport %q", transport)
	}
}
