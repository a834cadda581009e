// Package identity reports who this powctl instance is: host name and
// software version, as advertised over mDNS.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "0.1.0"

// Info holds system identity information.
type Info struct {
	Hostname string
	Version  string
}

// Detect gathers Info, reading the version from metadata.json in dir.
func Detect(dir string) Info {
	return Info{Hostname: GetHostname(), Version: GetVersionFromDir(dir)}
}

// TXT renders the info as DNS-SD TXT records.
func (i Info) TXT() []string {
	return []string{"version=" + i.Version, "model=powctl", "host=" + i.Hostname}
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "powctl"
	}
	return h
}

// GetVersionFromDir reads {"version": ...} from dir/metadata.json.
// An empty dir, a missing file or a bad document all yield DefaultVersion.
func GetVersionFromDir(dir string) string {
	if dir == "" {
		return DefaultVersion
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Version == "" {
		return DefaultVersion
	}
	return meta.Version
}
