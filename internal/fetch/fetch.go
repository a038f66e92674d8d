package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/gearhound/gearpage-scraper/internal/models"
	"github.com/gearhound/gearpage-scraper/internal/snapshot"
)

// ErrRetrievalFailed marks a non-success retrieval status that is neither
// the anti-bot block nor recoverable. It is fatal for the single URL only.
var ErrRetrievalFailed = errors.New("post retrieval failed")

const (
	// DefaultProxyFormat templates a post URL into the plaintext rendering
	// proxy used when the board withholds structured markup.
	DefaultProxyFormat = "https://r.jina.ai/%s"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type Options struct {
	Timeout     time.Duration
	UserAgent   string
	ProxyFormat string
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:     30 * time.Second,
		UserAgent:   defaultUserAgent,
		ProxyFormat: DefaultProxyFormat,
	}
}

// Fetcher retrieves individual post pages. The primary path requests the
// structured markup directly; a 403 from the board is treated as the
// anti-automation block and recovered through the rendering proxy, whose
// plaintext output goes to the snapshot parser.
type Fetcher struct {
	client      *resty.Client
	proxyFormat string
	logger      *slog.Logger
}

func New(opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &Fetcher{
		client:      client,
		proxyFormat: opts.ProxyFormat,
		logger:      slog.Default().With("component", "post_fetcher"),
	}
}

// FetchPost returns the structured record for a single post URL.
func (f *Fetcher) FetchPost(ctx context.Context, postURL string) (*models.PostRecord, error) {
	res, err := f.client.R().SetContext(ctx).Get(postURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", postURL, err)
	}

	switch {
	case res.IsSuccess():
		return ParsePostPage(postURL, res.String())
	case res.StatusCode() == http.StatusForbidden:
		f.logger.Warn("primary retrieval blocked, switching to snapshot proxy", "url", postURL)
		return f.fetchSnapshot(ctx, postURL)
	default:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRetrievalFailed, postURL, res.StatusCode())
	}
}

func (f *Fetcher) fetchSnapshot(ctx context.Context, postURL string) (*models.PostRecord, error) {
	proxyURL := fmt.Sprintf(f.proxyFormat, postURL)
	res, err := f.client.R().SetContext(ctx).Get(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot for %s: %w", postURL, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: snapshot proxy returned status %d for %s", ErrRetrievalFailed, res.StatusCode(), postURL)
	}
	return snapshot.Parse(postURL, res.String()), nil
}

// ParsePostPage extracts a record from the structured markup of a post
// page. A missing element yields a null field, never an error.
func ParsePostPage(postURL, html string) (*models.PostRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse post page: %w", err)
	}

	rec := &models.PostRecord{URL: postURL}
	rec.Title = models.Text(collapseSpace(doc.Find("h1.p-title-value").First().Text()))

	message := doc.Find("article.message").First()
	rec.Author = models.Text(collapseSpace(message.Find(".message-name .username").First().Text()))

	if dt, ok := message.Find("time").First().Attr("datetime"); ok {
		rec.PostedOn = models.Text(strings.TrimSpace(dt))
	}

	rec.Content = messageContent(message)
	return rec, nil
}

// messageContent joins the paragraphs of the message body. Bodies without
// paragraph elements fall back to line-split text.
func messageContent(message *goquery.Selection) *string {
	body := message.Find(".message-body .bbWrapper").First()
	if body.Length() == 0 {
		body = message.Find(".message-body").First()
	}
	if body.Length() == 0 {
		return nil
	}

	var paragraphs []string
	body.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := collapseSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		for _, line := range strings.Split(body.Text(), "\n") {
			if text := collapseSpace(line); text != "" {
				paragraphs = append(paragraphs, text)
			}
		}
	}

	return models.Text(strings.Join(paragraphs, "\n\n"))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
