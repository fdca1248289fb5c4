// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API with Redis cache and Postgres presets, Ebiten window viewer
// 0.2.0 - Bloom, tone mapping, pointer glow, gas clouds, colour classes
// 0.1.0 - Initial release: spiral generator, terminal viewer, headless exports
