package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewActorId mints an opaque, non-content-addressed ActorId for a caller
// that has no externally-assigned identity to use instead.
func NewActorId() ActorId { return ActorId(uuid.New().String()) }

// DecisionRuleKind discriminates a committee's voting rule.
type DecisionRuleKind byte

const (
	RuleSimpleMajority DecisionRuleKind = iota
	RuleQualifiedMajority
	RuleUnanimous
	RuleWeighted
	RuleCustom
)

// DecisionRule is SimpleMajority/QualifiedMajority(pct)/Unanimous/
// Weighted/Custom(name) (§4.7).
type DecisionRule struct {
	Kind       DecisionRuleKind
	Percentage float64 // QualifiedMajority payload, 0-100
	Name       string  // Custom payload
}

func SimpleMajorityRule() DecisionRule { return DecisionRule{Kind: RuleSimpleMajority} }
func QualifiedMajorityRule(pct float64) DecisionRule {
	return DecisionRule{Kind: RuleQualifiedMajority, Percentage: pct}
}
func UnanimousRule() DecisionRule { return DecisionRule{Kind: RuleUnanimous} }
func WeightedRule() DecisionRule { return DecisionRule{Kind: RuleWeighted} }
func CustomRule(name string) DecisionRule { return DecisionRule{Kind: RuleCustom, Name: name} }

// Vote is one member's ballot on a Decision.
type Vote struct {
	MemberId  ActorId
	Vote      bool
	Weight    *float64
	Timestamp time.Time
	Comments  string
}

// Decision is a proposal put to a committee vote.
type Decision struct {
	Id          string
	Description string
	Proposal    string
	CreatedAt   time.Time
	ClosesAt    *time.Time
	Votes       []Vote
	Rule        DecisionRule
	Result      *bool
	FinalizedAt *time.Time
}

func (d *Decision) finalized() bool { return d.FinalizedAt != nil }

func (d *Decision) hasVoted(member ActorId) bool {
	for _, v := range d.Votes {
		if v.MemberId == member {
			return true
		}
	}
	return false
}

// InvalidStateError reports a committee-layer invariant violation: a
// duplicate vote, a vote on a finalized decision, or a reference to an
// unknown decision/member (§4.7, §5).
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return fmt.Sprintf("invalid state: %s", e.Message) }

// Committee is an actor holding membership, a DecisionRule, and the
// active/finalized decision sets. Vote addition and finalization are a
// single atomic operation serialized by the committee's lock (§5).
type Committee struct {
	mu        sync.Mutex
	Name      string
	Members   map[ActorId]struct{}
	Rule      DecisionRule
	active    map[string]*Decision
	finalized map[string]*Decision

	log *logrus.Entry
	tel *Telemetry
}

func NewCommittee(name string, members []ActorId, rule DecisionRule, log *logrus.Logger, tel *Telemetry) *Committee {
	set := make(map[ActorId]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tel == nil {
		tel = NewTelemetry()
	}
	return &Committee{
		Name:      name,
		Members:   set,
		Rule:      rule,
		active:    make(map[string]*Decision),
		finalized: make(map[string]*Decision),
		log:       log.WithField("component", "committee"),
		tel:       tel,
	}
}

// Propose opens a new active decision.
func (c *Committee) Propose(id, description, proposal string, closesAt *time.Time, createdAt time.Time) (*Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.active[id]; exists {
		return nil, &InvalidStateError{Message: fmt.Sprintf("decision %s already active", id)}
	}
	if _, exists := c.finalized[id]; exists {
		return nil, &InvalidStateError{Message: fmt.Sprintf("decision %s already finalized", id)}
	}
	d := &Decision{
		Id:          id,
		Description: description,
		Proposal:    proposal,
		CreatedAt:   createdAt,
		ClosesAt:    closesAt,
		Rule:        c.Rule,
	}
	c.active[id] = d
	return d, nil
}

// AddVote casts a vote and, in the same atomic step, checks finalization
// readiness and finalizes if ready (§4.7, §5).
func (c *Committee) AddVote(decisionId string, v Vote) (*Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.active[decisionId]
	if !ok {
		if _, finalized := c.finalized[decisionId]; finalized {
			return nil, &InvalidStateError{Message: fmt.Sprintf("decision %s already finalized", decisionId)}
		}
		return nil, &InvalidStateError{Message: fmt.Sprintf("unknown decision %s", decisionId)}
	}
	if _, isMember := c.Members[v.MemberId]; !isMember {
		return nil, &InvalidStateError{Message: fmt.Sprintf("%s is not a committee member", v.MemberId)}
	}
	if d.hasVoted(v.MemberId) {
		return nil, &InvalidStateError{Message: fmt.Sprintf("%s already voted on %s", v.MemberId, decisionId)}
	}

	d.Votes = append(d.Votes, v)

	if readyToFinalize(d, len(c.Members), v.Timestamp) {
		c.finalizeLocked(d, v.Timestamp)
	}
	return d, nil
}

func readyToFinalize(d *Decision, members int, now time.Time) bool {
	if d.finalized() {
		return false
	}
	if d.ClosesAt != nil && !now.Before(*d.ClosesAt) {
		return true
	}
	votes := len(d.Votes)
	switch d.Rule.Kind {
	case RuleSimpleMajority:
		return votes > members/2
	case RuleQualifiedMajority:
		return votes >= requiredVotes(members, d.Rule.Percentage)
	case RuleUnanimous, RuleWeighted, RuleCustom:
		return votes == members
	default:
		return false
	}
}

func (c *Committee) finalizeLocked(d *Decision, now time.Time) {
	result := evaluateOutcome(d)
	d.Result = &result
	finalizedAt := now
	d.FinalizedAt = &finalizedAt
	delete(c.active, d.Id)
	c.finalized[d.Id] = d
	c.tel.DecisionsFinalized.Inc()
	c.log.WithField("decision", d.Id).Info("decision finalized")
}

func evaluateOutcome(d *Decision) bool {
	switch d.Rule.Kind {
	case RuleWeighted:
		var yes, total float64
		for _, v := range d.Votes {
			w := 1.0
			if v.Weight != nil {
				w = *v.Weight
			}
			total += w
			if v.Vote {
				yes += w
			}
		}
		return yes > total/2
	case RuleQualifiedMajority:
		yes := 0
		for _, v := range d.Votes {
			if v.Vote {
				yes++
			}
		}
		return yes >= requiredVotes(len(d.Votes), d.Rule.Percentage)
	default: // SimpleMajority, Unanimous, Custom
		yes, no := 0, 0
		for _, v := range d.Votes {
			if v.Vote {
				yes++
			} else {
				no++
			}
		}
		return yes > no
	}
}

func (c *Committee) Decision(id string) (*Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.active[id]; ok {
		return d, true
	}
	if d, ok := c.finalized[id]; ok {
		return d, true
	}
	return nil, false
}

func (c *Committee) ActiveDecisions() []*Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Decision, 0, len(c.active))
	for _, d := range c.active {
		out = append(out, d)
	}
	return out
}

func (c *Committee) FinalizedDecisions() []*Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Decision, 0, len(c.finalized))
	for _, d := range c.finalized {
		out = append(out, d)
	}
	return out
}
