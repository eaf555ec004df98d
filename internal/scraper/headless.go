package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// LinkDiscoverer finds job detail links on a listing page.
type LinkDiscoverer interface {
	Discover(ctx context.Context, listURL, linkSelector string) ([]string, error)
}

// HeadlessDiscoverer renders the listing in headless Chrome, for careers
// pages that build their job list with JavaScript.
type HeadlessDiscoverer struct {
	Timeout time.Duration
	Settle  time.Duration
}

func (d HeadlessDiscoverer) Discover(ctx context.Context, listURL, linkSelector string) ([]string, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	settle := d.Settle
	if settle <= 0 {
		settle = 1500 * time.Millisecond
	}
	if strings.TrimSpace(linkSelector) == "" {
		linkSelector = "a[href]"
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(defaultUserAgent),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, timeout)
	defer reqCancel()

	var hrefs []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(a => a.getAttribute('href')).filter(Boolean)`, linkSelector)
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(listURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.EvaluateAsDevTools(script, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("headless discover %s: %w", listURL, err)
	}

	links := ResolveLinks(listURL, hrefs)
	if len(links) == 0 {
		return nil, fmt.Errorf("no job links found on %s", listURL)
	}
	return links, nil
}

// ResolveLinks makes hrefs absolute against base, drops fragments and
// non-http links, and removes duplicates while keeping order.
func ResolveLinks(base string, hrefs []string) []string {
	b, err := url.Parse(base)
	if err != nil {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasPrefix(h, "#") {
			continue
		}
		ref, err := url.Parse(h)
		if err != nil {
			continue
		}
		abs := b.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		abs.Fragment = ""
		s := abs.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
