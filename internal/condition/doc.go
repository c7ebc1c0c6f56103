// Package condition evaluates the typed condition tree used by the "if",
// "filter", and "switch" node kinds over an already-interpolated pair of
// string operands.
package condition
