package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/creators"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
	"github.com/aluiziolira/go-scrape-catalog/sources"
	"github.com/jarcoal/httpmock"
)

const dashwoodShop = `<html><body>
<a href="/shop/p/ravens">Ravens</a>
<a href="/shop/p/missing">Missing</a>
<a href="/shop/p/sun-city">Sun City</a>
</body></html>`

func dashwoodItem(heading, img string) string {
	return `<html><head>
<meta property="product:availability" content="instock">
<meta property="og:image" content="` + img + `">
</head><body><div class="ProductItem-details">
<h1 class="ProductItem-details-title">` + heading + `</h1>
<div class="ProductItem-details-excerpt"><p>Edition of 500, "signed".</p></div>
</div></body></html>`
}

func TestScrapeSourceWritesCSV(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Delay = 0

	transport := httpmock.NewMockTransport()
	base := "https://www.dashwoodbooks.com"
	transport.RegisterResponder("GET", base+"/shop", httpmock.NewStringResponder(200, dashwoodShop))
	transport.RegisterResponder("GET", base+"/shop/p/ravens",
		httpmock.NewStringResponder(200, dashwoodItem("Masahisa Fukase - Ravens", "/r.jpg")))
	transport.RegisterResponder("GET", base+"/shop/p/missing", httpmock.NewStringResponder(http.StatusNotFound, ""))
	transport.RegisterResponder("GET", base+"/shop/p/sun-city",
		httpmock.NewStringResponder(200, dashwoodItem("Jane Doe - Sun City, Vol. 1", "//cdn.test/s.jpg")))

	fetcher, err := scraper.NewFetcher(cfg, scraper.NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.WithTransport(transport)

	checker, err := creators.NewChecker(creators.NewStaticIndex([]string{"Masahisa Fukase"}), 16)
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}

	output := filepath.Join(t.TempDir(), "out", "dashwood.csv")
	deps := sources.Deps{Fetcher: fetcher, Creators: checker}
	result, err := scrapeSource(context.Background(), cfg, scraper.NewRunner(cfg, fetcher), deps, "dashwood", output)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if result.Discovered != 3 || result.Written != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.ErrorsByType["not_found"] != 1 {
		t.Fatalf("errors by type = %v", result.ErrorsByType)
	}
	if result.FetchErrors != 1 {
		t.Fatalf("fetch errors = %d, want 1", result.FetchErrors)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(data)
	if strings.HasSuffix(content, "\n") {
		t.Fatalf("output must not end with a newline")
	}
	lines := strings.Split(content, "\n")
	want := []string{
		"title,artist,artistExistsInDb,description,coverUrl,images,availability,purchaseLink",
		`Ravens,Masahisa Fukase,true,"Edition of 500, ""signed"".",https://www.dashwoodbooks.com/r.jpg,,available,https://www.dashwoodbooks.com/shop/p/ravens`,
		`"Sun City, Vol. 1",Jane Doe,false,"Edition of 500, ""signed"".",https://cdn.test/s.jpg,,available,https://www.dashwoodbooks.com/shop/p/sun-city`,
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %d, want %d:\n%s", len(lines), len(want), content)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestScrapeSourceDiscoveryFailureLeavesNoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Delay = 0

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://www.gostbooks.com/shop", httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	fetcher, err := scraper.NewFetcher(cfg, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.WithTransport(transport)
	checker, _ := creators.NewChecker(creators.NopIndex{}, 0)

	output := filepath.Join(t.TempDir(), "gost.csv")
	deps := sources.Deps{Fetcher: fetcher, Creators: checker}
	result, err := scrapeSource(context.Background(), cfg, scraper.NewRunner(cfg, fetcher), deps, "gost", output)
	if err == nil {
		t.Fatalf("expected discovery error")
	}
	if result != nil {
		t.Fatalf("expected nil result")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("output file should be removed, stat err = %v", statErr)
	}
}

func TestScrapeSourceUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	fetcher, err := scraper.NewFetcher(cfg, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	checker, _ := creators.NewChecker(creators.NopIndex{}, 0)
	deps := sources.Deps{Fetcher: fetcher, Creators: checker}

	if _, err := scrapeSource(context.Background(), cfg, scraper.NewRunner(cfg, fetcher), deps, "nope", filepath.Join(t.TempDir(), "x.csv")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}
