// Package petstate holds the pet state-update model: bounded stats mutated by a
// fixed set of actions, single-step level-up, and the passive decay tick.
//
// Everything here is pure. Callers own persistence and presentation; level-up
// and distress are reported on the returned Outcome instead of being shown.
package petstate
