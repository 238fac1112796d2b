// Package handler implements the mock script endpoint's HTTP handlers.
//
// Every business operation arrives as POST /exec with a scriptapi.Request
// body and is answered with a scriptapi.Response envelope. Handlers keep
// the issued session tokens in a TTL table and serve data from a
// fixture.Store.
package handler
