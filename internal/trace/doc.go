// Package trace records the phases of a comparison cycle.
//
// A cycle is traced as nested spans:
//
//	cycle            one engine.Run call (CLI check or LSP diagnostics)
//	  pair           one reference/comparison pair
//	    load         raw text acquisition
//	    flatten      key extraction for one document
//	    diff         set difference
//	    locate       span recovery for the decorated document
//
// Enable it from the command line:
//
//	missingkeys check --trace=- --trace-level=phase
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "flatten", parent)
//	defer span.End("")
package trace
