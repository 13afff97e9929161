package visualization

import "embed"

// assets contains the embedded canvas page.
//
//go:embed assets/*
var assets embed.FS
