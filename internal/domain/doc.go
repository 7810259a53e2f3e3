// Package domain holds the core entities of the capsule system: users,
// capsules and their content, recipients, delivery logs, and notifications.
// Entities validate themselves and carry no infrastructure dependencies.
package domain
