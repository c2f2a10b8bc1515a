package provider

import (
	"context"
	"log"
)

// ResolveTeam picks the team that should own a newly provisioned key.
//
// First choice is the first team the user has full access to. When the
// team list is empty, all teams are limited, or the call itself fails,
// the userinfo subject stands in as a personal pseudo-team. Failures at
// either step never propagate; an empty result is the only signal.
// Membership can change between requests, so nothing is cached.
func (c *Client) ResolveTeam(ctx context.Context, accessToken string) string {
	teams, err := c.ListTeams(ctx, accessToken)
	if err != nil {
		log.Printf("⚠️ Team listing failed (token %s): %v", maskToken(accessToken), err)
	}
	for _, team := range teams {
		if !team.Limited {
			return team.ID
		}
	}

	info, err := c.FetchUserInfo(ctx, accessToken)
	if err != nil {
		log.Printf("⚠️ Userinfo fallback failed: %v", err)
		return ""
	}
	return info.Sub
}
