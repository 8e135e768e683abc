package core_test

import (
	"testing"
	"time"

	core "causality/core"
)

// TestCommitteeSimpleMajority mirrors spec Scenario F: committee of 3 with
// SimpleMajority; two yes votes finalize with result true, and a third
// vote attempt fails with InvalidState.
func TestCommitteeSimpleMajority(t *testing.T) {
	members := []core.ActorId{"member1", "member2", "member3"}
	c := core.NewCommittee("council", members, core.SimpleMajorityRule(), nil, nil)

	now := time.Unix(1000, 0)
	if _, err := c.Propose("d1", "desc", "proposal", nil, now); err != nil {
		t.Fatalf("propose: %v", err)
	}

	d, err := c.AddVote("d1", core.Vote{MemberId: "member1", Vote: true, Timestamp: now})
	if err != nil {
		t.Fatalf("vote 1: %v", err)
	}
	if d.Result != nil {
		t.Fatalf("should not finalize after 1/3 votes")
	}

	d, err = c.AddVote("d1", core.Vote{MemberId: "member2", Vote: true, Timestamp: now})
	if err != nil {
		t.Fatalf("vote 2: %v", err)
	}
	if d.Result == nil || !*d.Result {
		t.Fatalf("expected finalized result true after 2/3 votes, got %+v", d.Result)
	}

	if _, err := c.AddVote("d1", core.Vote{MemberId: "member3", Vote: false, Timestamp: now}); err == nil {
		t.Fatalf("expected InvalidState voting a finalized decision")
	}

	if len(c.FinalizedDecisions()) != 1 || len(c.ActiveDecisions()) != 0 {
		t.Fatalf("expected decision to have moved from active to finalized")
	}
}

func TestCommitteeDuplicateVoteRejected(t *testing.T) {
	members := []core.ActorId{"m1", "m2", "m3", "m4", "m5"}
	c := core.NewCommittee("council", members, core.SimpleMajorityRule(), nil, nil)
	now := time.Unix(0, 0)
	c.Propose("d1", "", "", nil, now)

	if _, err := c.AddVote("d1", core.Vote{MemberId: "m1", Vote: true, Timestamp: now}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := c.AddVote("d1", core.Vote{MemberId: "m1", Vote: false, Timestamp: now}); err == nil {
		t.Fatalf("expected InvalidState for duplicate vote")
	}
}

func TestCommitteeQualifiedMajority(t *testing.T) {
	members := []core.ActorId{"m1", "m2", "m3", "m4"}
	c := core.NewCommittee("council", members, core.QualifiedMajorityRule(75), nil, nil)
	now := time.Unix(0, 0)
	c.Propose("d1", "", "", nil, now)

	for _, m := range []core.ActorId{"m1", "m2"} {
		d, err := c.AddVote("d1", core.Vote{MemberId: m, Vote: true, Timestamp: now})
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
		if d.Result != nil {
			t.Fatalf("should not finalize before 3/4 votes cast")
		}
	}

	d, err := c.AddVote("d1", core.Vote{MemberId: "m3", Vote: true, Timestamp: now})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if d.Result == nil || !*d.Result {
		t.Fatalf("expected finalized true at 3/4 (75%%) votes, got %+v", d.Result)
	}
}

func TestCommitteeWeighted(t *testing.T) {
	members := []core.ActorId{"m1", "m2"}
	c := core.NewCommittee("council", members, core.WeightedRule(), nil, nil)
	now := time.Unix(0, 0)
	c.Propose("d1", "", "", nil, now)

	heavy := 10.0
	light := 1.0
	c.AddVote("d1", core.Vote{MemberId: "m1", Vote: false, Weight: &heavy, Timestamp: now})
	d, err := c.AddVote("d1", core.Vote{MemberId: "m2", Vote: true, Weight: &light, Timestamp: now})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if d.Result == nil || *d.Result {
		t.Fatalf("expected weighted no to win, got %+v", d.Result)
	}
}

func TestCommitteeClosesAtForcesFinalization(t *testing.T) {
	members := []core.ActorId{"m1", "m2", "m3"}
	c := core.NewCommittee("council", members, core.SimpleMajorityRule(), nil, nil)
	closesAt := time.Unix(100, 0)
	c.Propose("d1", "", "", &closesAt, time.Unix(0, 0))

	after := time.Unix(200, 0)
	d, err := c.AddVote("d1", core.Vote{MemberId: "m1", Vote: true, Timestamp: after})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if d.Result == nil {
		t.Fatalf("expected finalization once closes_at has elapsed, even with 1/3 votes")
	}
}
