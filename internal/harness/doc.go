// Package harness provides a conformance testing framework for the
// canon engine.
//
// Scenarios are YAML files that name a CUE declaration directory and a
// list of assertions over the engine's verdict and, optionally, over a
// realization run against stub realizers. Every scenario executes with
// a frozen clock so verdict snapshots are byte-stable and suitable for
// golden file comparison.
//
// A scenario file looks like:
//
//	name: tangent-circles-valid
//	description: A well-formed two-circle declaration validates clean.
//	declaration: declarations/tangent_circles
//	realize:
//	  stub_kinds: [Circle]
//	assertions:
//	  - type: verdict_ok
//	    ok: true
//	  - type: artifact
//	    subject: circle_a
//
// The harness exercises the real engine end to end: the declaration is
// compiled by the loader, validated by the full rule set, and realized
// through the registry. Only the realizers themselves are stubs.
package harness
