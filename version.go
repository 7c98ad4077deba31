package homeview

// Version is the release of homeview. It is overridden at build time with
// -ldflags "-X github.com/aretw0/homeview.Version=...".
var Version = "0.1.0"
