package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
)

func TestAnnotateCandidatesDropsSelf(t *testing.T) {
	out := AnnotateCandidates("u1", []Candidate{
		{UserID: "u1", Name: "Me"},
		{UserID: "u2", Name: "Other"},
	}, nil)

	assert.Len(t, out, 1)
	assert.Equal(t, "u2", out[0].UserID)
	assert.Equal(t, model.RelationNotFriend, out[0].FriendStatus)
}

func TestAnnotateCandidatesStatuses(t *testing.T) {
	rels := map[string]*model.Friendship{
		"u2": {RequesterID: "u1", AddresseeID: "u2", Status: model.FriendshipAccepted},
		"u3": {RequesterID: "u3", AddresseeID: "u1", Status: model.FriendshipRequested},
	}
	out := AnnotateCandidates("u1", []Candidate{
		{UserID: "u2"}, {UserID: "u3"}, {UserID: "u4"},
	}, rels)

	assert.Len(t, out, 3)
	got := map[string]string{}
	for _, c := range out {
		got[c.UserID] = c.FriendStatus
	}
	assert.Equal(t, model.RelationFriends, got["u2"])
	assert.Equal(t, model.RelationBeingRequested, got["u3"])
	assert.Equal(t, model.RelationNotFriend, got["u4"])
}

func TestAnnotateCandidatesEmpty(t *testing.T) {
	assert.Empty(t, AnnotateCandidates("u1", nil, nil))
}
