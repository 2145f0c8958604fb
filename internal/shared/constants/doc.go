// Package constants centralizes defaults shared across the CLI and the
// detection core.
//
// The probe timeout and catalog binding key live here so the detector, the
// browser adapter and the bundled signature catalog agree on them without
// introducing import cycles.
package constants
