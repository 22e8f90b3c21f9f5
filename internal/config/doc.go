// Package config loads wallet definitions and environment defaults.
//
// A wallet definition names the owner set and threshold, in YAML or CUE:
//
//	owners: [alice, bob, carol]
//	threshold: 2
//
// YAML is decoded strictly; unknown fields are rejected. CUE files are
// unified with a closed schema before decoding, so type errors, an empty
// owner list or a threshold below 1 surface with CUE positions. Range and
// uniqueness rules are enforced afterwards by registry.New.
package config
