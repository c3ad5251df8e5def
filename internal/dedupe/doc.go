// Package dedupe tracks webhook delivery IDs so redelivered signals are
// processed at most once within a configurable window.
package dedupe
