// Package types defines the ClientStore interface, the domain payload
// types stored by the fleet datastore, and the standard error types
// returned by all backends.
package types
