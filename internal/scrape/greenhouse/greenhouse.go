package greenhouse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://boards.greenhouse.io"

var errNoTitle = errors.New("no title on job page")

// Scraper reads one Greenhouse board (boards.greenhouse.io/<slug>).
type Scraper struct {
	src     config.Source
	client  *util.Client
	BaseURL string
}

func New(src config.Source, client *util.Client) *Scraper {
	return &Scraper{src: src, client: client, BaseURL: DefaultBaseURL}
}

func (s *Scraper) Name() string { return s.src.Name }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	base, err := url.Parse(strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(s.src.Slug))
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("greenhouse board url: %w", err)
	}

	body, err := s.client.Get(ctx, base.String(), "")
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("greenhouse get board: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("greenhouse parse board html: %w", err)
	}

	now := time.Now().UTC()
	seen := map[string]bool{}
	needsTitle := map[string]bool{}

	// Greenhouse boards link to /<slug>/jobs/<id>
	var jobs []domain.RawPosting
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs, err := util.Resolve(base, href)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || u.Host != base.Host || !strings.Contains(u.Path, "/jobs/") {
			return
		}

		jobID := extractJobID(u.Path)
		if jobID == "" {
			return
		}

		id := s.src.Name + ":" + jobID
		if seen[id] {
			return
		}
		seen[id] = true

		title := util.CleanText(a.Text())
		if looksLikeJunkTitle(title) {
			// the job page has the real title
			needsTitle[id] = true
		}

		jobs = append(jobs, domain.RawPosting{
			ID:         id,
			Source:     s.src.Name,
			Company:    s.src.CompanyName(),
			URL:        abs,
			Title:      title,
			ObservedAt: now,
		})
	})

	out := jobs[:0]
	for _, j := range jobs {
		if needsTitle[j.ID] {
			err := s.hydrateTitle(ctx, &j)
			switch {
			case err == nil:
			case util.IsNotFound(err):
				// taken down since the board was rendered
				log.Printf("[scrape:%s] job=%s gone; skipping", s.src.Name, j.URL)
				continue
			case errors.Is(err, errNoTitle):
				log.Printf("[scrape:%s] job=%s has no title; keeping link text", s.src.Name, j.URL)
			default:
				// dropping it would mark a live posting missing
				return types.ScrapeResult{}, fmt.Errorf("greenhouse job %s: %w", j.URL, err)
			}
		}
		out = append(out, j)
	}

	log.Printf("[scrape:%s] fetched postings=%d", s.src.Name, len(out))
	return types.ScrapeResult{Source: s.src.Name, Postings: out}, nil
}

func (s *Scraper) hydrateTitle(ctx context.Context, j *domain.RawPosting) error {
	body, err := s.client.Get(ctx, j.URL, "")
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return err
	}
	t := util.CleanText(doc.Find("h1").First().Text())
	if t == "" {
		return errNoTitle
	}
	j.Title = t
	return nil
}

func extractJobID(path string) string {
	// split on /jobs/ and take the next run of digits
	parts := strings.Split(path, "/jobs/")
	if len(parts) < 2 {
		return ""
	}
	tail := parts[1]
	end := 0
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}
	return tail[:end]
}

func looksLikeJunkTitle(t string) bool {
	if t == "" {
		return true
	}
	l := strings.ToLower(t)
	return l == "view" || l == "apply" || strings.HasPrefix(l, "view job") || strings.HasPrefix(l, "apply now")
}
