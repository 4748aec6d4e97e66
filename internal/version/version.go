package version

import "runtime"

// Set at build time with -ldflags "-X botcore/internal/version.Version=...".
var (
	AppName   = "botcore"
	Version   = "dev"
	BuildDate = ""
	GoVersion = runtime.Version()
)
