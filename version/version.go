package version

// Overridden at build time: -ldflags "-X github.com/sagan/promptmeta/version.Version=v1.2.3"
var Version = "dev"
