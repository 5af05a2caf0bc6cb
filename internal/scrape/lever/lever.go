package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://api.lever.co/v0/postings"

// Scraper reads one company's postings from the public Lever API.
type Scraper struct {
	src     config.Source
	client  *util.Client
	BaseURL string
}

func New(src config.Source, client *util.Client) *Scraper {
	return &Scraper{src: src, client: client, BaseURL: DefaultBaseURL}
}

func (s *Scraper) Name() string { return s.src.Name }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	apiURL := fmt.Sprintf("%s/%s?mode=json", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(s.src.Slug))

	body, err := s.client.Get(ctx, apiURL, "")
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("lever get: %w", err)
	}

	var postings []leverPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return types.ScrapeResult{}, fmt.Errorf("lever decode: %w", err)
	}

	now := time.Now().UTC()
	out := make([]domain.RawPosting, 0, len(postings))
	for _, p := range postings {
		title := util.CleanText(p.Text)
		if p.ID == "" || p.HostedURL == "" || title == "" {
			continue
		}
		out = append(out, domain.RawPosting{
			ID:         s.src.Name + ":" + p.ID,
			Source:     s.src.Name,
			Company:    s.src.CompanyName(),
			URL:        util.CanonicalURL(p.HostedURL),
			Title:      title,
			ObservedAt: now,
		})
	}

	log.Printf("[scrape:%s] fetched postings=%d", s.src.Name, len(out))
	return types.ScrapeResult{Source: s.src.Name, Postings: out}, nil
}
