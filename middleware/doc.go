// Package middleware adapts the goGate engine to net/http. An [Adapter]
// binds the engine to the application's session-resolution strategy once;
// its methods return standard func(http.Handler) http.Handler wrappers that
// run gate pipelines, write terminal responses, and translate raised
// failures (including recovered panics) through the engine's translator.
package middleware
