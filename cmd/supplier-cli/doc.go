// Package main provides the entry point for supplier-cli.
//
// supplier-cli signs in to the supplier management script endpoint and
// calls its operations on the signed-in user's behalf:
//
//	supplier-cli login alice
//	supplier-cli supplier list --status active
//	supplier-cli -o json call getOrders '{"supplier_id":"01HV..."}'
//	supplier-cli shell
//
// The session persists between invocations in the configured store.
// Exit codes: 0 success, 1 error, 2 authentication required, 3 transient
// failure (rate limited, unavailable or unreachable).
package main
