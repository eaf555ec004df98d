package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"job-portal/internal/domain/job"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// PostedAtLayout matches the datetime-local value the portal form produces.
const PostedAtLayout = "2006-01-02T15:04"

const maxDescriptionRunes = 4000

var ErrNoListings = errors.New("no job listings found")

// Selectors are CSS selectors for the parts of a careers site. Link applies
// to the listing page, everything else to a detail page.
type Selectors struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Salary      string `json:"salary"`
	Location    string `json:"location"`
	Deadline    string `json:"deadline"`
	Posted      string `json:"posted"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Link:        "a[href*='/job']",
		Title:       "h1",
		Company:     "[itemprop='hiringOrganization'], .company",
		Description: "[itemprop='description'], .description",
		Eligibility: "[itemprop='qualifications'], .eligibility",
		Salary:      "[itemprop='baseSalary'], .salary",
		Location:    "[itemprop='jobLocation'], .location",
		Deadline:    "[itemprop='validThrough'], .deadline",
		Posted:      "[itemprop='datePosted'], .posted",
	}
}

// merge fills blank selectors from d.
func (s Selectors) merge(d Selectors) Selectors {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Selectors{
		Link:        pick(s.Link, d.Link),
		Title:       pick(s.Title, d.Title),
		Company:     pick(s.Company, d.Company),
		Description: pick(s.Description, d.Description),
		Eligibility: pick(s.Eligibility, d.Eligibility),
		Salary:      pick(s.Salary, d.Salary),
		Location:    pick(s.Location, d.Location),
		Deadline:    pick(s.Deadline, d.Deadline),
		Posted:      pick(s.Posted, d.Posted),
	}
}

// CareersTarget is one company careers site. ListURL may carry a %d verb
// for the page number.
type CareersTarget struct {
	Company   string
	ListURL   string
	Pages     int
	Selectors Selectors
}

func (t CareersTarget) pageURL(page int) string {
	if strings.Contains(t.ListURL, "%d") {
		return fmt.Sprintf(t.ListURL, page)
	}
	return t.ListURL
}

type CareersOptions struct {
	Workers int
	RPS     int
	// Discoverer replaces the colly listing pass, e.g. HeadlessDiscoverer.
	Discoverer LinkDiscoverer
	Logger     *zap.Logger
	Now        func() time.Time
}

// CareersScraper turns careers pages into portal drafts.
type CareersScraper struct {
	workers    int
	rps        int
	discoverer LinkDiscoverer
	sanitizer  *Sanitizer
	logger     *zap.Logger
	now        func() time.Time
}

func NewCareersScraper(opts CareersOptions) *CareersScraper {
	s := &CareersScraper{
		workers:    opts.Workers,
		rps:        opts.RPS,
		discoverer: opts.Discoverer,
		sanitizer:  NewSanitizer(),
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type scrapedDetail struct {
	seq   int
	draft job.Draft
}

// Scrape visits every listing page of target and returns one draft per
// detail page, in listing order. Detail pages that fail are logged and skipped.
func (s *CareersScraper) Scrape(ctx context.Context, target CareersTarget) ([]job.Draft, error) {
	if strings.TrimSpace(target.ListURL) == "" {
		return nil, fmt.Errorf("careers target %q: empty list url", target.Company)
	}
	pages := target.Pages
	if pages <= 0 {
		pages = 1
	}
	sel := target.Selectors.merge(DefaultSelectors())

	var links []string
	seen := map[string]struct{}{}
	for page := 1; page <= pages; page++ {
		listURL := target.pageURL(page)
		found, err := s.listLinks(ctx, listURL, sel.Link)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("listing page failed", zap.String("url", listURL), zap.Int("page", page), zap.Error(err))
			continue
		}
		for _, l := range found {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			links = append(links, l)
		}
		if listURL == target.pageURL(page+1) {
			break
		}
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%s: %w", target.ListURL, ErrNoListings)
	}

	pool := NewWorkerPool[scrapedDetail](s.workers, s.workers*2)
	pool.SetRateLimit(s.rps)
	results := pool.Run(ctx)

	go func() {
		defer pool.Close()
		for i, link := range links {
			seq, link := i, link
			err := pool.Submit(ctx, func(ctx context.Context) (scrapedDetail, error) {
				d, err := s.scrapeDetail(ctx, link, target.Company, sel)
				if err != nil {
					return scrapedDetail{}, fmt.Errorf("%s: %w", link, err)
				}
				return scrapedDetail{seq: seq, draft: d}, nil
			})
			if err != nil {
				return
			}
		}
	}()

	details := make([]scrapedDetail, 0, len(links))
	for res := range results {
		if res.Err != nil {
			s.logger.Warn("detail page failed", zap.Error(res.Err))
			continue
		}
		details = append(details, res.Value)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(details, func(i, j int) bool { return details[i].seq < details[j].seq })
	out := make([]job.Draft, len(details))
	for i, d := range details {
		out[i] = d.draft
	}
	s.logger.Info("careers site scraped",
		zap.String("company", target.Company),
		zap.Int("links", len(links)),
		zap.Int("drafts", len(out)),
	)
	return out, nil
}

func (s *CareersScraper) listLinks(ctx context.Context, listURL, linkSelector string) ([]string, error) {
	if s.discoverer != nil {
		return s.discoverer.Discover(ctx, listURL, linkSelector)
	}

	c, err := s.collector(listURL)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	c.OnHTML(linkSelector, func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		hrefs = append(hrefs, e.Request.AbsoluteURL(href))
	})

	var reqErr error
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := c.Visit(listURL); err != nil {
		return nil, err
	}
	c.Wait()
	if reqErr != nil {
		return nil, reqErr
	}
	return ResolveLinks(listURL, hrefs), nil
}

func (s *CareersScraper) scrapeDetail(ctx context.Context, link, company string, sel Selectors) (job.Draft, error) {
	c, err := s.collector(link)
	if err != nil {
		return job.Draft{}, err
	}

	var (
		d      job.Draft
		found  bool
		reqErr error
	)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		found = true
		text := func(selector string) string {
			frag, _ := e.DOM.Find(selector).First().Html()
			return s.sanitizer.Text(frag)
		}
		d = job.Draft{
			CompanyName:         text(sel.Company),
			JobTitle:            text(sel.Title),
			JobDescription:      Clip(text(sel.Description), maxDescriptionRunes),
			EligibilityCriteria: text(sel.Eligibility),
			SalaryPackage:       text(sel.Salary),
			Location:            text(sel.Location),
			ApplicationDeadline: text(sel.Deadline),
			PostedAt:            text(sel.Posted),
		}
		if d.JobTitle == "" {
			d.JobTitle = strings.TrimSpace(e.ChildText("title"))
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if ctx.Err() != nil {
		return job.Draft{}, ctx.Err()
	}
	if err := c.Visit(link); err != nil {
		return job.Draft{}, err
	}
	c.Wait()
	if reqErr != nil {
		return job.Draft{}, reqErr
	}
	if !found {
		return job.Draft{}, fmt.Errorf("no html document")
	}

	if d.CompanyName == "" {
		d.CompanyName = strings.TrimSpace(company)
	}
	if d.PostedAt == "" {
		d.PostedAt = s.now().Format(PostedAtLayout)
	}
	return d, nil
}

func (s *CareersScraper) collector(rawURL string) (*colly.Collector, error) {
	host := hostFromURL(rawURL)
	if host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent(defaultUserAgent),
	)
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 2, RandomDelay: 250 * time.Millisecond})
	c.SetRequestTimeout(20 * time.Second)
	return c, nil
}

func hostFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
