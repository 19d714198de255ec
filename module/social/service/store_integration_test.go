//go:build integration

// Exercises the Mongo-backed store properties against a running mongod
// (MONGO_URI, default localhost). Run with: go test -tags integration ./...

package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mongoutil "github.com/chiendz11/Badminton-manager-microservices-sub002/data/database/mgo/mongoutil"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	mgoSrv "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/ids"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgoSrv.StartAsync(ctx, &mongoutil.Config{
		Uri:      tools.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: "social_service_it",
	})
	waitCtx, waitCancel := context.WithTimeout(ctx, 15*time.Second)
	defer waitCancel()
	if err := mgoSrv.WaitReady(waitCtx, mgoSrv.Manager()); err != nil {
		fmt.Fprintf(os.Stderr, "mongo not reachable, integration tests cannot run: %v\n", err)
		os.Exit(1)
	}
	db := mgoSrv.GetDB()
	if err := model.EnsureUserIndexes(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := model.EnsureFriendshipIndexes(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := model.EnsureConversationIndexes(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := model.EnsureMessageIndexes(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func freshUser() string { return "it-" + ids.GenerateString() }

func TestGetOrCreatePrivateConversationIdempotentAndSymmetric(t *testing.T) {
	ctx := context.Background()
	a, b := freshUser(), freshUser()

	c1, err := GetOrCreatePrivateConversation(ctx, a, b)
	require.NoError(t, err)
	c2, err := GetOrCreatePrivateConversation(ctx, a, b)
	require.NoError(t, err)
	c3, err := GetOrCreatePrivateConversation(ctx, b, a)
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, c1.ID, c3.ID)
}

func TestGetOrCreatePrivateConversationRace(t *testing.T) {
	ctx := context.Background()
	a, b := freshUser(), freshUser()

	const n = 8
	idsSeen := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			conv, err := GetOrCreatePrivateConversation(ctx, a, b)
			if err == nil {
				idsSeen[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.NotEmpty(t, idsSeen[i])
		assert.Equal(t, idsSeen[0], idsSeen[i], "racing creators must converge on one conversation")
	}
}

func TestMessageHistoryOrderAndRecency(t *testing.T) {
	ctx := context.Background()
	a, b, c := freshUser(), freshUser(), freshUser()

	convAB, err := GetOrCreatePrivateConversation(ctx, a, b)
	require.NoError(t, err)
	convAC, err := GetOrCreatePrivateConversation(ctx, a, c)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := AppendMessage(ctx, a, convAB.ID, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	msgs, err := ListMessages(ctx, convAB.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt), "history must be oldest first")
	}

	// appending to the other conversation moves it to the front
	_, err = AppendMessage(ctx, a, convAC.ID, "newest")
	require.NoError(t, err)

	views, err := ListConversationsForUser(ctx, a)
	require.NoError(t, err)
	require.NotEmpty(t, views)
	assert.Equal(t, convAC.ID, views[0].Conversation.ID)
	require.NotNil(t, views[0].Conversation.LastMessage)
	assert.Equal(t, "newest", views[0].Conversation.LastMessage.Content)
}

func TestDirectoryPartialUpdateWithoutVersion(t *testing.T) {
	ctx := context.Background()
	u := freshUser()

	require.NoError(t, ApplyUserCreated(ctx, &UserEvent{UserID: u, Name: "Alice", Username: "alice"}))
	require.NoError(t, ApplyUserUpdated(ctx, &UserEvent{UserID: u, Name: "Alicia"}))

	got, err := GetUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, "alice", got.Username, "omitted fields stay untouched")
}

func TestDirectoryVersionGuard(t *testing.T) {
	ctx := context.Background()
	u := freshUser()

	require.NoError(t, ApplyUserCreated(ctx, &UserEvent{UserID: u, Name: "v2", Version: 2}))

	// stale events in both shapes are ignored
	require.NoError(t, ApplyUserCreated(ctx, &UserEvent{UserID: u, Name: "v1", Version: 1}))
	require.NoError(t, ApplyUserUpdated(ctx, &UserEvent{UserID: u, Name: "stale", Version: 2}))

	got, err := GetUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
	assert.Equal(t, int64(2), got.Version)

	// a newer version applies and advances the stored version
	require.NoError(t, ApplyUserUpdated(ctx, &UserEvent{UserID: u, Name: "v3", Version: 3}))
	got, err = GetUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Name)
	assert.Equal(t, int64(3), got.Version)
}

func TestAcceptWithoutRequestCreatesNothing(t *testing.T) {
	ctx := context.Background()
	a, b := freshUser(), freshUser()

	_, conv, err := AcceptRequest(ctx, a, b)
	assert.True(t, errs.IsCode(err, errs.ErrRelationshipNotFound))
	assert.Nil(t, conv)

	existing, err := findPrivateByPair(ctx, model.PairKey(a, b))
	require.NoError(t, err)
	assert.Nil(t, existing, "failed accept must not create a conversation")
}
