package version

// BuildVersion is set at build time through -ldflags.
var BuildVersion = "change-me"
