// Package testutil holds fixtures shared by package tests: a fixed-epoch
// mock clock and deterministic request ids.
package testutil
