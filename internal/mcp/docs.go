package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `spacetracker records time spent listening to live audio Spaces and grants small rewards for it.

Core concepts:
- Space session: one continuous listen of one Space, submitted by the browser agent when it ends.
- Eligible: a session that lasted at least the minimum duration (default 1 minute).
- Reward: points granted server-side. Space rewards start unclaimed; feedback and report rewards are claimed on grant.
- Daily cap: total points a user can earn per UTC day. Grants that would overshoot are clamped.
- Streak: consecutive UTC days with at least one reward.

Tools:
1) get_reward_state for totals, today's earnings and remaining cap.
2) list_rewards (claimed=false) to find rewards waiting to be claimed.
3) claim_reward(reward_id) to claim one. A second claim fails with ALREADY_CLAIMED.
4) list_spaces and get_recent_activity to explain why a reward was or was not granted.

Docs:
- spacetracker://docs/rewards (how grants are decided)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "spacetracker://docs/rewards",
		Name:        "docs_rewards",
		Title:       "How rewards are granted",
		Description: "Eligibility, the daily gate, amount ranges, the daily cap and streaks.",
		Content: `# How rewards are granted

Every ended Space session is submitted with its duration. The server decides the reward; amounts sent by clients are ignored.

## Order of checks

1. Not eligible (duration below the minimum): no reward, nothing recorded against the cap.
2. Daily cap reached: denied with reason daily_cap.
3. Daily gate: each user has one deterministic draw per category per UTC day.
   With the default probabilities, space passes for half of users on a given day,
   feedback for 30% and report for 10%. A user who fails the gate keeps failing it
   for that category until the next UTC day.
4. Amount: drawn from the category range (space 1-25, feedback 1-10, report 1-5),
   then clamped to what is left of the daily cap.

## Streaks

The streak counts consecutive UTC days with a reward. A gap of more than one day resets it to 1.

## Claiming

Space rewards are created unclaimed and must be claimed once with claim_reward.
Feedback and report rewards are claimed when granted.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
