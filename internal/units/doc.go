// Package units defines the fixed set of scale profiles and the conversions
// between each profile's native unit and meters.
//
// Profiles are immutable values registered at package init; there is no
// runtime registration. The operator's default profile travels through a
// Resolver built from configuration rather than process-wide state.
package units
