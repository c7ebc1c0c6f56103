// Package value implements the engine's dynamic JSON-like value type and the
// textual interpolation language used to route data between workflow nodes.
package value
