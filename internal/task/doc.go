// Package task manages background job queuing, processing, and lifecycle.
// Capsule delivery runs here: a scheduler finds capsules whose delivery time
// has arrived and enqueues delivery tasks, which survive restarts through
// database persistence and are retried on transient failure.
package task
