// Package harness runs contract test scenarios against a simulated network.
//
// A scenario deploys its contracts on a fresh in-memory network, runs setup
// steps that must succeed, then a flow of public calls and read-only queries
// whose outcomes are checked against expect clauses. The harness only sees
// what a client would: the success flag, the returned value and the error
// text. It never looks inside the contract.
//
// # Scenario Format
//
//	name: draft_full_team
//	description: "The eleventh draft is rejected"
//	flow_token: test-flow-draft
//	contracts:
//	  - name: fantasy-sports
//	    path: fantasy-sports.cue
//	setup:
//	  - call: fantasy-sports.join-league
//	    sender: user1
//	    amount: 100000000
//	flow:
//	  - call: fantasy-sports.draft-player
//	    sender: user1
//	    args: ["u{i}"]
//	    repeat: 10
//	  - call: fantasy-sports.draft-player
//	    sender: user1
//	    args: ["u11"]
//	    expect: { success: false, error: ERR-TEAM-FULL }
//	  - query: fantasy-sports.get-team
//	    args: ["{user1}"]
//	    expect: { contains: "u10" }
//	assertions:
//	  - type: trace_count
//	    action: fantasy-sports.draft-player
//	    count: 11
//
// In args and expectations, {i} is the 1-based repeat index and {name} is
// the address of an identity or the contract id of a deployed contract.
//
// # Assertion Types
//
//   - trace_contains: an action was invoked, optionally with exact args and sender
//   - trace_order: actions were first invoked in the given order
//   - trace_count: an action was invoked exactly N times
//   - final_state: one row of a store table has the expected column values
//   - balance: an account holds exactly the given µSTX
//
// # Deterministic Testing
//
// Trace sequence numbers come from testutil.DeterministicClock and the flow
// token is fixed by the scenario or derived from its name, so the same
// scenario always produces a byte-identical trace. RunWithGolden compares
// that trace against testdata/golden/<name>.golden.
package harness
