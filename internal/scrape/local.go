package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	localMaxBody  = 512 * 1024
	localMinBody  = 100
	localUA       = "Mozilla/5.0 (compatible; VCIntelBot/1.0)"
	jsShellMaxLen = 2000
)

// blockKind describes an anti-bot response.
type blockKind string

const (
	blockNone       blockKind = ""
	blockCloudflare blockKind = "cloudflare"
	blockCaptcha    blockKind = "captcha"
	blockJSShell    blockKind = "js_shell"
)

// LocalScraper fetches HTML directly and reduces it to plaintext. It is the
// optional fallback behind the reader.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper bounded by timeout.
func NewLocalScraper(timeout time.Duration) *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Supports accepts any http(s) URL.
func (l *LocalScraper) Supports(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// Scrape fetches a URL, rejects blocked or empty pages, and strips HTML.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", localUA)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, localMaxBody))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if kind := detectBlock(resp, body); kind != blockNone {
		return nil, eris.Errorf("local_http: blocked (%s)", kind)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(body) < localMinBody {
		return nil, eris.New("local_http: empty page")
	}

	text := stripHTML(string(body))
	if title := extractTitle(body); title != "" {
		text = "# " + title + "\n\n" + text
	}
	return &Result{Text: text, Source: "local_http"}, nil
}

// detectBlock checks a response for signs of anti-bot protection.
func detectBlock(resp *http.Response, body []byte) blockKind {
	if resp == nil {
		return blockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("server") == "cloudflare" {
			return blockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return blockCloudflare
	}
	if strings.Contains(lower, "captcha") {
		return blockCaptcha
	}
	if len(body) < jsShellMaxLen && strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
		return blockJSShell
	}
	return blockNone
}

var (
	titleRe     = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)
	dropBlockRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|noscript)[^>]*>.*?</(script|style|nav|footer|noscript)>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	blankRe     = regexp.MustCompile(`\n\s*\n\s*\n+`)
	entities    = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

func extractTitle(body []byte) string {
	if m := titleRe.FindSubmatch(body); len(m) > 1 {
		return strings.TrimSpace(entities.Replace(string(m[1])))
	}
	return ""
}

// stripHTML drops non-content blocks, strips tags, decodes common entities,
// and collapses whitespace.
func stripHTML(html string) string {
	html = titleRe.ReplaceAllString(html, "")
	html = dropBlockRe.ReplaceAllString(html, "")
	html = tagRe.ReplaceAllString(html, " ")
	html = entities.Replace(html)
	html = spaceRe.ReplaceAllString(html, " ")
	html = blankRe.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}
