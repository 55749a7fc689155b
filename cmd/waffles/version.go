package main

import "strings"

// Set with -ldflags "-X main.buildVersion=... -X main.buildCommit=...".
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
)

func versionString() string {
	return formatVersion(buildVersion, buildCommit)
}

// formatVersion returns release versions unchanged and tags dev builds
// with the short commit when known.
func formatVersion(version, commit string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}
	if v != "dev" {
		return v
	}

	if c := shortCommit(commit); c != "" {
		return "dev-" + c
	}
	return "dev"
}

func shortCommit(commit string) string {
	c := strings.TrimSpace(commit)
	if c == "" || c == "unknown" {
		return ""
	}
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
