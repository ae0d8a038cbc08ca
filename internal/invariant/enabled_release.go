//go:build !debug

package invariant

// Enabled is true in debug builds.
const Enabled = false
