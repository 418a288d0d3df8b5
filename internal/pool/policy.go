package pool

import (
	"fmt"
	"strings"

	"github.com/angeloszaimis/target-pool/internal/strategy"
)

// Policy names a selection strategy.
type Policy string

const (
	PolicyRoundRobin         Policy = "round-robin"
	PolicyLeastConnections   Policy = "least-connections"
	PolicyWeightedRoundRobin Policy = "weighted-round-robin"
	PolicyRandom             Policy = "random"
)

// Policies lists every supported policy.
func Policies() []Policy {
	return []Policy{
		PolicyRoundRobin,
		PolicyLeastConnections,
		PolicyWeightedRoundRobin,
		PolicyRandom,
	}
}

// ParsePolicy accepts the canonical names plus a few common aliases.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round-robin", "roundrobin", "rr":
		return PolicyRoundRobin, nil
	case "least-connections", "least-conn", "leastconn", "lc":
		return PolicyLeastConnections, nil
	case "weighted-round-robin", "weighted", "wrr":
		return PolicyWeightedRoundRobin, nil
	case "random":
		return PolicyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

func (p Policy) String() string {
	return string(p)
}

// tracksConnections reports whether selection reserves a connection slot on
// the chosen target.
func (p Policy) tracksConnections() bool {
	return p == PolicyLeastConnections
}

func (p Policy) newStrategy() (strategy.Strategy, error) {
	switch p {
	case PolicyRoundRobin:
		return strategy.NewRoundRobinStrategy(), nil
	case PolicyLeastConnections:
		return strategy.NewLeastConnStrategy(), nil
	case PolicyWeightedRoundRobin:
		return strategy.NewWeightedRoundRobinStrategy(), nil
	case PolicyRandom:
		return strategy.NewRandomStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, string(p))
	}
}
