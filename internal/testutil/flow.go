package testutil

import "github.com/google/uuid"

// flowNamespace scopes name-derived flow tokens.
var flowNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/simnet/flow"))

// DerivedFlowToken returns a deterministic flow token for a scenario that
// does not set one: a name-based (version 5) UUID prefixed with "test-flow-".
// The same name always yields the same token, so golden traces stay stable.
func DerivedFlowToken(name string) string {
	return "test-flow-" + uuid.NewSHA1(flowNamespace, []byte(name)).String()
}
