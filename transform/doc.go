// Package transform implements the lowering passes and the pass driver.
//
// A pass mutates an ir.Module in place and must leave it valid. Passes are
// registered by name so pipelines can be assembled from configuration files:
//
//	passes:
//	  - name: polyfill
//	    options:
//	      conv_f32_to_iu32: true
//	  - name: value_to_let
//
// The Manager runs a pipeline, validating the module before the first pass
// and after every pass, and collects a Report with per-pass statistics.
// ForTarget returns the pipeline a backend expects its input to be lowered with.
package transform
