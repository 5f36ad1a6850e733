// Package document parses JSON and YAML text into a closed, order-preserving
// value model.
//
// The model has four variants (Null, Scalar, Array, Mapping). Consumers
// switch on Value.Kind instead of inspecting dynamic Go types, and mapping
// entries keep the order in which their keys first appear in the source.
//
// Byte offsets are not part of the model. Callers that need positions work
// on the raw text (see package locate).
package document
