package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
)

func TestClassify(t *testing.T) {
	me := "u1"
	rels := map[string]*model.Friendship{
		"u2": {RequesterID: "u1", AddresseeID: "u2", Status: model.FriendshipAccepted},
		"u3": {RequesterID: "u1", AddresseeID: "u3", Status: model.FriendshipRequested},
		"u4": {RequesterID: "u4", AddresseeID: "u1", Status: model.FriendshipRequested},
	}

	cases := []struct {
		candidate string
		want      string
	}{
		{"u2", model.RelationFriends},
		{"u3", model.RelationRequested},
		{"u4", model.RelationBeingRequested},
		{"u5", model.RelationNotFriend},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(me, tc.candidate, rels), "candidate %s", tc.candidate)
	}
}

func TestClassifyDirectionMatters(t *testing.T) {
	// the same pending record reads differently from each side
	f := &model.Friendship{RequesterID: "a", AddresseeID: "b", Status: model.FriendshipRequested}

	assert.Equal(t, model.RelationRequested,
		Classify("a", "b", map[string]*model.Friendship{"b": f}))
	assert.Equal(t, model.RelationBeingRequested,
		Classify("b", "a", map[string]*model.Friendship{"a": f}))
}
