package switchboard

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/switchboard.Version=...".
var Version = "dev"
