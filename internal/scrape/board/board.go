// Package board scrapes job boards that have no API by slicing their HTML
// with per-source regular expressions.
package board

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/secrets"
)

// Scraper extracts postings from one configured html source.
type Scraper struct {
	src      config.Source
	start    *regexp.Regexp
	end      *regexp.Regexp
	nextJob  *regexp.Regexp
	company  *regexp.Regexp
	id       *regexp.Regexp
	jobURL   *regexp.Regexp
	title    *regexp.Regexp
	base     *url.URL
	client   *util.Client
	maxPages int

	// Cookie looks up the Cookie header for the source's keyring account.
	Cookie func(account string) (string, error)
}

func compile(name, expr string, required bool) (*regexp.Regexp, error) {
	if expr == "" {
		if required {
			return nil, fmt.Errorf("%s is required", name)
		}
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return re, nil
}

func New(src config.Source, client *util.Client, maxPages int) (*Scraper, error) {
	base, err := url.Parse(src.URL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("source %q: url %q is not absolute", src.Name, src.URL)
	}
	s := &Scraper{src: src, base: base, client: client, maxPages: maxPages, Cookie: secrets.SourceCookie}
	if s.maxPages <= 0 {
		s.maxPages = 1
	}

	fields := []struct {
		dst      **regexp.Regexp
		name     string
		expr     string
		required bool
	}{
		{&s.start, "start_re", src.StartRe, false},
		{&s.end, "end_re", src.EndRe, false},
		{&s.nextJob, "next_job_re", src.NextJobRe, true},
		{&s.company, "job_company_re", src.JobCompanyRe, false},
		{&s.id, "job_id_re", src.JobIDRe, false},
		{&s.jobURL, "job_url_re", src.JobURLRe, true},
		{&s.title, "job_title_re", src.JobTitleRe, true},
	}
	for _, f := range fields {
		re, err := compile(f.name, f.expr, f.required)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		*f.dst = re
	}
	return s, nil
}

func (s *Scraper) Name() string { return s.src.Name }

// Fetch walks the board's pages and returns every posting found.
func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	cookie := ""
	if s.src.CookieKeyring != "" && s.Cookie != nil {
		c, err := s.Cookie(s.src.CookieKeyring)
		if err != nil {
			return types.ScrapeResult{}, fmt.Errorf("source %q cookie: %w", s.src.Name, err)
		}
		cookie = c
	}

	now := time.Now().UTC()
	var order []string
	byID := map[string]domain.RawPosting{}
	visited := map[string]bool{}

	page := s.base
	for n := 0; page != nil; n++ {
		pageURL := page.String()
		if visited[pageURL] {
			util.Debugf("[scrape:%s] page %d: %s already visited; stopping", s.src.Name, n, pageURL)
			break
		}
		if n == s.maxPages {
			// a short batch would mark the rest of the board missing
			return types.ScrapeResult{}, fmt.Errorf("source %q: more than %d pages", s.src.Name, s.maxPages)
		}
		visited[pageURL] = true

		util.Debugf("[scrape:%s] page %d: %s", s.src.Name, n, pageURL)
		body, err := s.client.Get(ctx, pageURL, cookie)
		if err != nil {
			return types.ScrapeResult{}, fmt.Errorf("source %q page %d: %w", s.src.Name, n, err)
		}

		found := s.ParsePage(string(body), page, now)
		for _, p := range found {
			if _, dup := byID[p.ID]; dup {
				log.Printf("[scrape:%s] duplicate id=%q; keeping the last one", s.src.Name, p.ID)
			} else {
				order = append(order, p.ID)
			}
			byID[p.ID] = p
		}
		util.Debugf("[scrape:%s] page %d: found %d jobs (%d total)", s.src.Name, n, len(found), len(byID))

		page = s.nextPage(body, page)
	}

	out := make([]domain.RawPosting, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	log.Printf("[scrape:%s] fetched postings=%d", s.src.Name, len(out))
	return types.ScrapeResult{Source: s.src.Name, Postings: out}, nil
}

func (s *Scraper) nextPage(body []byte, cur *url.URL) *url.URL {
	if s.src.NextPage == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("[scrape:%s] parse page for pagination: %v", s.src.Name, err)
		return nil
	}
	href, ok := doc.Find(s.src.NextPage).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return cur.ResolveReference(ref)
}

// capture returns the first group of re in text, decoded and trimmed.
func capture(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return util.CleanHTMLText(m[1]), true
}

// ParsePage extracts postings from one page of HTML. Entries whose title,
// url, company or id pattern doesn't match are skipped.
func (s *Scraper) ParsePage(html string, page *url.URL, observed time.Time) []domain.RawPosting {
	start := 0
	if s.start != nil {
		if loc := s.start.FindStringIndex(html); loc != nil {
			start = loc[1]
		}
	}
	end := len(html)
	if s.end != nil {
		if loc := s.end.FindStringIndex(html[start:]); loc != nil {
			end = start + loc[0]
		}
	}

	chunks := s.nextJob.Split(html[start:end], -1)
	if len(chunks) <= 1 {
		return nil
	}

	var out []domain.RawPosting
	for _, chunk := range chunks[1:] {
		company := ""
		if s.company != nil {
			c, ok := capture(s.company, chunk)
			if !ok {
				continue
			}
			company = c
		}
		if company == "" {
			company = s.src.CompanyName()
		}

		title, ok := capture(s.title, chunk)
		if !ok || title == "" {
			continue
		}

		rawURL, ok := capture(s.jobURL, chunk)
		if !ok {
			continue
		}
		link, err := util.Resolve(page, rawURL)
		if err != nil {
			continue
		}

		id := link
		if s.id != nil {
			v, ok := capture(s.id, chunk)
			if !ok || v == "" {
				continue
			}
			id = s.src.Name + ":" + v
		}

		out = append(out, domain.RawPosting{
			ID:         id,
			Source:     s.src.Name,
			Company:    company,
			URL:        link,
			Title:      title,
			ObservedAt: observed,
		})
	}
	return out
}
