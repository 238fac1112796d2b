// Package tests runs the supplier CLI against the mock script endpoint,
// both built from this module, through real HTTP and the on-disk session
// store.
package tests
