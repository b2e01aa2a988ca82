// Package preflight provides readiness checks for the filesystem locations
// and state modsuite depends on.
//
// `modsuite doctor` runs RunAll and renders every Result; individual checks
// such as CheckDirectoryAccess are also usable on their own.
package preflight
