// Package engine runs one comparison cycle: load the reference and
// comparison documents, flatten both, diff the key sequences and locate every
// missing key in the decorated document(s).
//
// Run is stateless. Callers own scheduling, cancellation and the emission of
// the returned findings; see internal/lsp for the coalescing editor loop and
// cmd/missingkeys for the one-shot CLI.
package engine
