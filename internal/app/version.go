package app

// Build identity, injected with -ldflags at release time.
var (
	Version   = "dev"
	GitTag    = ""
	BuildTime = ""
)
