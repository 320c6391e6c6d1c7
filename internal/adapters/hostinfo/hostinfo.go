// Package hostinfo resolves the host name reported as a datapoint dimension.
package hostinfo

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

var info = host.Info

// Resolve returns override when set, otherwise the host name reported by the OS.
func Resolve(override string) (string, error) {
	if h := strings.TrimSpace(override); h != "" {
		return h, nil
	}
	st, err := info()
	if err != nil {
		return "", fmt.Errorf("host info: %w", err)
	}
	return st.Hostname, nil
}
