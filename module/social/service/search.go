package service

import (
	"context"
	"time"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/errs"

	"github.com/go-resty/resty/v2"
)

// Candidate is an identity-search hit enriched with the viewer's
// relationship status.
type Candidate struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	FriendStatus string `json:"friendStatus"`
}

// SearchClient wraps the external identity-search endpoint. The search is
// a black box returning profile hits; this service only annotates them.
type SearchClient struct {
	http *resty.Client
}

func NewSearchClient(baseURL string) *SearchClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second)
	return &SearchClient{http: c}
}

type searchResponse struct {
	Users []Candidate `json:"users"`
}

// SearchUsers queries the identity service by keyword. Transport failures
// and non-2xx responses surface as UpstreamUnavailable; no fallback or
// cached result exists.
func (c *SearchClient) SearchUsers(ctx context.Context, keyword string) ([]Candidate, error) {
	var body searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("keyword", keyword).
		SetResult(&body).
		Get("/api/users/search")
	if err != nil {
		return nil, errs.ErrUpstream.WrapMsg("identity search failed", "keyword", keyword, "err", err)
	}
	if resp.IsError() {
		return nil, errs.ErrUpstream.WrapMsg("identity search error status", "status", resp.StatusCode())
	}
	return body.Users, nil
}

// AnnotateCandidates fills FriendStatus on each candidate from a prefetched
// relation map and drops the viewer's own record. Pure.
func AnnotateCandidates(userID string, cands []Candidate, rels map[string]*model.Friendship) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, cand := range cands {
		if cand.UserID == userID {
			continue
		}
		cand.FriendStatus = Classify(userID, cand.UserID, rels)
		out = append(out, cand)
	}
	return out
}

// SearchWithRelationship runs the upstream search and annotates the hits
// for the viewing user.
func (c *SearchClient) SearchWithRelationship(ctx context.Context, userID, keyword string) ([]Candidate, error) {
	cands, err := c.SearchUsers(ctx, keyword)
	if err != nil {
		return nil, err
	}
	rels, err := RelationMap(ctx, userID)
	if err != nil {
		return nil, err
	}
	return AnnotateCandidates(userID, cands, rels), nil
}
