// Package shared groups helpers used by more than one package.
//
// The testutil subpackage provides a buffered slog handler for asserting on log
// output and the sample performance, previous and follower tables used across
// the dataprocessing, services and CLI tests.
package shared
