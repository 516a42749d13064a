// Package modules owns the external collaborator contracts the cortex
// lifecycle can expose.
//
// Ownership boundary:
// - module metadata shape
// - inference, rendering and optimizer interfaces
// - local module registry primitives
//
// Implementations return caller-supplied or fixed values. The lifecycle
// never depends on their correctness.
package modules
