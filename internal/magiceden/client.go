package magiceden

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ligun0805/mint-sniper/internal/mintcore"
)

// DefaultBaseURL is the public marketplace API.
const DefaultBaseURL = "https://api-mainnet.magiceden.io/v4/self_serve/nft"

// Client fetches mint offers and stage schedules. Malformed or empty
// responses come back as ErrNoOffer / ErrNoStages, never a panic.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 12 * time.Second},
		log:     log.With().Str("component", "magiceden").Logger(),
	}
}

type stageJSON struct {
	StartTime float64 `json:"startTime"`
	Price     string  `json:"price"`
}

type offerJSON struct {
	CollectionID string      `json:"collectionId"`
	Name         string      `json:"name"`
	IsMinting    bool        `json:"isMinting"`
	Protocol     string      `json:"protocol"`
	TokenID      string      `json:"tokenId"`
	Stages       []stageJSON `json:"stages"`
}

// FetchOffer resolves a parsed link to an offer. Mint-terminal links
// return their stage schedule inline; launchpad links return nil
// stages, to be fetched separately via FetchStages.
func (c *Client) FetchOffer(ctx context.Context, link Link) (*mintcore.MintOffer, []mintcore.Stage, error) {
	var path string
	switch link.Kind {
	case KindMintTerminal:
		path = fmt.Sprintf("%s/collections/%s/%s", c.baseURL, link.Chain, strings.ToLower(link.Contract.Hex()))
	case KindLaunchpad:
		path = fmt.Sprintf("%s/launchpads/%s", c.baseURL, link.Slug)
	default:
		return nil, nil, fmt.Errorf("%w: unknown link kind", mintcore.ErrNoOffer)
	}

	var raw offerJSON
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", mintcore.ErrNoOffer, err)
	}
	if raw.CollectionID == "" {
		return nil, nil, fmt.Errorf("%w: response missing collectionId", mintcore.ErrNoOffer)
	}

	offer := &mintcore.MintOffer{
		CollectionID:   raw.CollectionID,
		CollectionName: raw.Name,
		IsMinting:      raw.IsMinting,
		Protocol:       mintcore.ParseProtocol(raw.Protocol),
		TokenID:        raw.TokenID,
	}
	c.log.Info().
		Str("collection", offer.CollectionName).
		Str("protocol", string(offer.Protocol)).
		Int("stages", len(raw.Stages)).
		Msg("offer fetched")

	if link.Kind == KindLaunchpad {
		return offer, nil, nil
	}
	stages, err := convertStages(raw.Stages)
	if err != nil {
		return nil, nil, err
	}
	return offer, stages, nil
}

// FetchStages loads the stage schedule for a collection id.
func (c *Client) FetchStages(ctx context.Context, collectionID string) ([]mintcore.Stage, error) {
	path := fmt.Sprintf("%s/collections/%s/stages", c.baseURL, collectionID)
	var raw struct {
		Stages []stageJSON `json:"stages"`
	}
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", mintcore.ErrNoStages, err)
	}
	return convertStages(raw.Stages)
}

func convertStages(raw []stageJSON) ([]mintcore.Stage, error) {
	if len(raw) == 0 {
		return nil, mintcore.ErrNoStages
	}
	stages := make([]mintcore.Stage, 0, len(raw))
	for i, s := range raw {
		price, ok := new(big.Int).SetString(strings.TrimSpace(s.Price), 10)
		if !ok {
			return nil, fmt.Errorf("%w: stage %d has bad price %q", mintcore.ErrNoStages, i, s.Price)
		}
		stages = append(stages, mintcore.Stage{
			Index:     i,
			StartTime: s.StartTime,
			PriceWei:  price,
		})
	}
	return stages, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
