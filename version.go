package roguepath

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/roguepath.Version=...".
var Version = "dev"
