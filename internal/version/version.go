// Package version holds the build version, set with ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/mtga-ratings-sync/internal/version.Version=v1.2.3"
package version

// Version defaults to "dev" for local builds.
var Version = "dev"

// UserAgent returns the User-Agent sent to upstream APIs.
func UserAgent() string {
	return "MTGA-Ratings-Sync/" + Version
}
