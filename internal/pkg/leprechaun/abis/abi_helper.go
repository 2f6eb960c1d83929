package abis

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	parseMu    sync.Mutex
	parseCache = make(map[string]*abi.ABI)
)

// ParseABI parses an ABI JSON string, memoizing the result. The Get helpers
// in this package call it on every invocation, so the cache keeps repeated
// lookups from re-parsing the same JSON.
func ParseABI(abiJSON string) (*abi.ABI, error) {
	parseMu.Lock()
	defer parseMu.Unlock()

	if cached, ok := parseCache[abiJSON]; ok {
		return cached, nil
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, err
	}
	parseCache[abiJSON] = &parsed
	return &parsed, nil
}
