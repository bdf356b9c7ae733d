// Package buildinfo identifies the chartflow build that produced a
// snapshot. The CLI prints it for --version and the HTTP server reports
// it on /healthz.
//
// Release builds stamp the variables at link time:
//
//	go build -ldflags "-X github.com/matzehuels/chartflow/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/chartflow/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/chartflow/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/chartflow
package buildinfo

import "fmt"

// Unstamped builds (go run, go test) keep these defaults.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the JSON form of the build stamp.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build stamp.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// Dev reports whether the binary was built without a version stamp.
func (i Info) Dev() bool { return i.Version == "dev" }

func (i Info) String() string {
	return fmt.Sprintf("chartflow %s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}

// Template is the cobra version template; the command name is left to cobra.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", i.Version, i.Commit, i.Date)
}
