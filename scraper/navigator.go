package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"plex_harvester/config"
)

const centrisBase = "https://www.centris.ca"

// Navigator drives a browser through the Centris thumbnail pages and
// collects candidate listing URLs. It owns pagination, the cookie dialog and
// sort order; it never reads listing content. Duplicate URLs across runs are
// expected and handled downstream by the store's identifier check.
type Navigator struct {
	cfg *config.ScraperConfig
}

func NewNavigator(cfg *config.ScraperConfig) *Navigator {
	return &Navigator{cfg: cfg}
}

// CollectURLs walks up to cfg.NumPages thumbnail pages and returns the detail
// URLs in discovery order.
func (n *Navigator) CollectURLs(ctx context.Context) ([]string, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(n.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.SetViewportSize(1280, 720)
	page.SetExtraHTTPHeaders(map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	})

	if _, err := page.Goto(n.cfg.StartURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("open start page: %w", err)
	}

	n.handleConsent(page)
	n.sortByRecent(page)

	var urls []string
	for i := 0; i < n.cfg.NumPages; i++ {
		select {
		case <-ctx.Done():
			return urls, ctx.Err()
		default:
		}

		if err := n.waitForThumbnails(page); err != nil {
			log.Printf("Error waiting for listings on page %d: %v", i+1, err)
			break
		}

		links, err := page.Locator("a.property-thumbnail-summary-link").All()
		if err != nil {
			log.Printf("Error locating summary links on page %d: %v", i+1, err)
			break
		}
		log.Printf("Found %d properties on page %d", len(links), i+1)

		for _, link := range links {
			href, err := link.GetAttribute("href")
			if err != nil || !strings.HasPrefix(href, "/fr/") {
				continue
			}
			urls = append(urls, detailURL(href))
		}

		if !n.nextPage(page) {
			log.Println("No more listings to load")
			break
		}
	}

	return urls, nil
}

func (n *Navigator) waitForThumbnails(page playwright.Page) error {
	if _, err := page.WaitForSelector("div#property-result"); err != nil {
		return err
	}
	if _, err := page.WaitForSelector("a.property-thumbnail-summary-link"); err != nil {
		return err
	}
	// Extra safety wait for dynamic content.
	page.WaitForTimeout(2000)
	return nil
}

func (n *Navigator) nextPage(page playwright.Page) bool {
	next := page.Locator("li.next a").First()
	if visible, _ := next.IsVisible(); !visible {
		return false
	}
	if err := next.Click(); err != nil {
		log.Printf("Error clicking next page: %v", err)
		return false
	}
	page.WaitForTimeout(float64(n.cfg.PageDelayMS))
	return true
}

// sortByRecent switches the result order to most recent publication so that
// the known-identifier early stop sees new listings first.
func (n *Navigator) sortByRecent(page playwright.Page) {
	sortButton := page.Locator("#selectSortById").First()
	if visible, _ := sortButton.IsVisible(); !visible {
		log.Println("Sort dropdown not found, keeping default order")
		return
	}
	if err := sortButton.Click(); err != nil {
		log.Printf("Error opening sort dropdown: %v", err)
		return
	}

	option := page.Locator(`a[data-option-value="3"]`).First()
	if err := option.Click(); err != nil {
		log.Printf("Error selecting recent sort: %v", err)
		return
	}
	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

func (n *Navigator) handleConsent(page playwright.Page) {
	accept := page.Locator("button#didomi-notice-agree-button").First()
	if visible, _ := accept.IsVisible(); visible {
		log.Println("Cookie consent popup found, accepting")
		if err := accept.Click(); err != nil {
			log.Printf("Error clicking consent button: %v", err)
			return
		}
		page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateNetworkidle,
		})
	}
}

// detailURL builds the canonical detail-view URL from a thumbnail href.
func detailURL(href string) string {
	full := centrisBase + href
	if strings.Contains(full, "view=") {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + "view=Summary"
}

// pageDelay spaces out listing fetches so the driver looks human.
func pageDelay(ms int) {
	if ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}
