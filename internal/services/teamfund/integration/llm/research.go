package llm

import (
	"context"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/leadsource"
)

// ResearchLeads asks the model for local sponsor candidates for a sport in a
// location and parses up to five leads from its answer.
func (c *Client) ResearchLeads(ctx context.Context, sport, location string) ([]domain.LeadDraft, error) {
	text, err := c.Complete(ctx, "", leadsource.ResearchPrompt(sport, location))
	if err != nil {
		return nil, err
	}
	return leadsource.ParseCompletion(text), nil
}
