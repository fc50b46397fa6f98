package climate

import (
	"context"
	"log"

	"github.com/you/climatemap/internal/panel"
)

// Fetcher loads climate data for a clicked station into its panel
type Fetcher struct {
	client *Client
}

// NewFetcher creates a fetcher backed by client
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchClimate queries the API for climateID and replaces the panel content,
// unless tok has been superseded by a later click in the meantime. The
// returned error is informational; the panel already shows the outcome.
func (f *Fetcher) FetchClimate(ctx context.Context, p *panel.State, tok panel.Token, climateID string) error {
	records, err := f.client.Recent(ctx, climateID)
	if err != nil {
		log.Printf("Climate: %v", err)
		if !p.Write(tok, RenderError()) {
			log.Printf("Climate: discarded stale error for %s (request %d)", climateID, tok)
		}
		return err
	}

	if !p.Write(tok, Render(records, f.client.Year())) {
		log.Printf("Climate: discarded stale response for %s (request %d)", climateID, tok)
	}
	return nil
}
