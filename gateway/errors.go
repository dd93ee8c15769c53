package gateway

import (
	"fmt"

	"github.com/KOMKZ/yogan-market/httpclient"
)

// UpstreamError the upstream answered with a 5xx.
// It counts as a breaker failure and is relayed to the client verbatim.
type UpstreamError struct {
	Service  string
	Response *httpclient.Response
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s responded %d", e.Service, e.Response.StatusCode)
}
