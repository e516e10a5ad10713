// Package services implements the driving port interfaces.
// Services hold the bot's business logic and orchestrate calls to
// driven ports (adapters).
//
// Services are pure Go and never import adapters directly.
package services
