// Package testsupport provides fixtures shared by package tests: temp-rooted
// configs, file writers, and an opened ledger.
package testsupport
