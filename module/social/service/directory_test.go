package service

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildUserPatchPartial(t *testing.T) {
	patch := BuildUserPatch(&UserEvent{UserID: "u1", Name: "Alice", Role: "member"})
	if len(patch) != 2 {
		t.Fatalf("want 2 fields in patch, got %d: %v", len(patch), patch)
	}
	if patch["name"] != "Alice" || patch["role"] != "member" {
		t.Fatalf("unexpected patch: %v", patch)
	}
	if _, ok := patch["username"]; ok {
		t.Fatalf("empty username must not overwrite the stored value")
	}
	if _, ok := patch["avatar_url"]; ok {
		t.Fatalf("empty avatar must not overwrite the stored value")
	}
}

func TestBuildUserPatchEmptyEvent(t *testing.T) {
	patch := BuildUserPatch(&UserEvent{UserID: "u1"})
	if len(patch) != 0 {
		t.Fatalf("event with no profile fields must produce an empty patch, got %v", patch)
	}
}

func TestUpdatedFilterVersionlessMatchesAnyStoredVersion(t *testing.T) {
	// a created event without a version stores version 1; a later
	// version-less update must still match that record
	created := &UserEvent{UserID: "u1", Name: "A"}
	if got := createdUpdate(created, time.Now())["$set"].(bson.M)["version"]; got != int64(1) {
		t.Fatalf("created without version must store version 1, got %v", got)
	}

	f := updatedFilter(&UserEvent{UserID: "u1", Name: "X"})
	if len(f) != 1 || f["user_id"] != "u1" {
		t.Fatalf("version-less update must match on user_id alone, got %v", f)
	}
}

func TestUpdatedFilterVersionedGuardsStaleEvents(t *testing.T) {
	f := updatedFilter(&UserEvent{UserID: "u1", Name: "X", Version: 7})
	cond, ok := f["version"].(bson.M)
	if !ok {
		t.Fatalf("versioned update must carry the version guard, got %v", f)
	}
	if cond["$lt"] != int64(7) {
		t.Fatalf("guard must reject stored versions >= 7, got %v", cond)
	}
}

func TestUpdatedSetVersionHandling(t *testing.T) {
	now := time.Now()

	set := updatedSet(&UserEvent{UserID: "u1", Name: "X"}, now)
	if _, ok := set["version"]; ok {
		t.Fatalf("version-less update must not touch the stored version: %v", set)
	}
	if set["name"] != "X" || set["update_time"] != now {
		t.Fatalf("unexpected set document: %v", set)
	}

	set = updatedSet(&UserEvent{UserID: "u1", Name: "X", Version: 9}, now)
	if set["version"] != int64(9) {
		t.Fatalf("versioned update must advance the stored version: %v", set)
	}
}

func TestCreatedFilterRejectsOlderState(t *testing.T) {
	f := createdFilter(&UserEvent{UserID: "u1", Version: 5})
	if f["user_id"] != "u1" {
		t.Fatalf("filter must key on user_id: %v", f)
	}
	if f["version"].(bson.M)["$lt"] != int64(5) {
		t.Fatalf("filter must only match state older than the event: %v", f)
	}

	// unversioned created events guard at the floor
	f = createdFilter(&UserEvent{UserID: "u1"})
	if f["version"].(bson.M)["$lt"] != int64(1) {
		t.Fatalf("unversioned created must guard at version 1: %v", f)
	}
}

func TestNormVersion(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{42, 42},
	}
	for _, tc := range cases {
		evt := &UserEvent{Version: tc.in}
		if got := evt.normVersion(); got != tc.want {
			t.Errorf("normVersion(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
