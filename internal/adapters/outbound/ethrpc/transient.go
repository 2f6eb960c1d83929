package ethrpc

import (
	"context"
	"errors"
	"net"
	"strings"
)

// IsTransient classifies RPC errors worth retrying: network hiccups, rate
// limiting, and endpoint overload. Contract reverts and cancellations are
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"unexpected eof",
		"i/o timeout",
		"too many requests",
		"429",
		"502",
		"503",
		"service unavailable",
		"rate limit",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
