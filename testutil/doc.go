// Package testutil provides seeded data generators shared by the tests and
// benchmarks of this module.
package testutil
