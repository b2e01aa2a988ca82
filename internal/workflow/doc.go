// Package workflow executes recipe documents step by step.
//
// Actions register with a Registry; the Runner never names a concrete action.
// Before anything is dispatched, every step is compiled by its action into a
// Task with typed, unit-canonicalized parameters, so an invalid step is known
// up front and reported as a failed result without invoking any collaborator.
// Steps then run strictly in document order. A failing or panicking step is
// captured as data and never aborts the run: a document with N steps always
// yields N results.
//
// Per-step state follows pending -> validating -> dispatched -> succeeded or
// failed, with rejected for steps that never reach dispatch.
package workflow
