package emulator

import (
	"fmt"

	"github.com/gobwas/glob"

	"lambda-events/pkg/events"
)

// Decision is the result of evaluating a policy against a method ARN.
type Decision int

const (
	// NoMatch means no statement covered the request; access is denied.
	NoMatch Decision = iota
	Allowed
	ExplicitDeny
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allow"
	case ExplicitDeny:
		return "deny"
	default:
		return "no_match"
	}
}

// Evaluate applies IAM evaluation to doc for an execute-api:Invoke on
// methodArn: an explicit Deny wins over any Allow. Resource and action
// patterns use the IAM wildcards * and ?.
func Evaluate(doc events.PolicyDocument, methodArn string) (Decision, error) {
	decision := NoMatch

	for _, stmt := range doc.Statement {
		actionMatch, err := anyMatch(stmt.Action.Values(), events.ActionInvoke)
		if err != nil {
			return NoMatch, err
		}
		if !actionMatch {
			continue
		}

		resourceMatch, err := anyMatch(stmt.Resource.Values(), methodArn)
		if err != nil {
			return NoMatch, err
		}
		if !resourceMatch {
			continue
		}

		switch stmt.Effect {
		case events.EffectDeny:
			return ExplicitDeny, nil
		case events.EffectAllow:
			decision = Allowed
		default:
			return NoMatch, fmt.Errorf("statement has unknown effect %q", stmt.Effect)
		}
	}

	return decision, nil
}

func anyMatch(patterns []string, value string) (bool, error) {
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return false, fmt.Errorf("invalid policy pattern %q: %w", p, err)
		}
		if g.Match(value) {
			return true, nil
		}
	}
	return false, nil
}
