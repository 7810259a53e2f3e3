// Package events decouples services from the background task machinery.
// Services emit TaskRequestEvents without knowing which handlers consume
// them; the task package registers a handler that turns events into
// persisted tasks.
package events
