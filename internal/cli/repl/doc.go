// Package repl implements `supplier-cli shell`, an interactive loop that
// runs CLI commands against one session store.
//
//   - repl.go: read/eval loop and line splitting
//   - completer.go: prefix completion over the command tree
//   - history.go: persisted history that never records secrets
package repl
