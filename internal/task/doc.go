// Package task runs background work off the request path. Tasks are queued
// in memory and executed by a fixed pool of workers; nothing is persisted,
// so work still queued when the process exits is lost.
package task
