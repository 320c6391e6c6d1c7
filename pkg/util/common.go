// Package util holds helpers shared by the binaries.
package util

import (
	"fmt"
	"io"
)

// BuildInfo is stamped into binaries through -ldflags "-X main.buildVersion=...".
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// PrintBuildInfo writes one line per field, prefixed with the binary name.
func PrintBuildInfo(w io.Writer, name string, bi BuildInfo) {
	fmt.Fprintf(w, "%s build version: %s\n", name, orNA(bi.Version))
	fmt.Fprintf(w, "%s build date: %s\n", name, orNA(bi.Date))
	fmt.Fprintf(w, "%s build commit: %s\n", name, orNA(bi.Commit))
}
