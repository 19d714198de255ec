package model

import "testing"

func TestPairKeySymmetric(t *testing.T) {
	if PairKey("u1", "u2") != PairKey("u2", "u1") {
		t.Fatalf("pair key must not depend on argument order")
	}
	if got := PairKey("u9", "u10"); got != "u10:u9" {
		t.Fatalf("pair key not sorted lexicographically: %s", got)
	}
}

func TestFriendshipOther(t *testing.T) {
	f := &Friendship{RequesterID: "a", AddresseeID: "b"}
	if got := f.Other("a"); got != "b" {
		t.Fatalf("Other(a) = %s, want b", got)
	}
	if got := f.Other("b"); got != "a" {
		t.Fatalf("Other(b) = %s, want a", got)
	}
}

func TestConversationHasMember(t *testing.T) {
	conv := &Conversation{MemberIDs: []string{"u1", "u2"}}
	if !conv.HasMember("u1") || !conv.HasMember("u2") {
		t.Fatalf("expected both members present")
	}
	if conv.HasMember("u3") {
		t.Fatalf("u3 must not be a member")
	}
}
