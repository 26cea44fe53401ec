// Package quorumtest provides mocks and helpers shared by the tests of all
// quorum packages.
package quorumtest
