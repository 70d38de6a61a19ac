// Package wikidata implementiert den QueryExecutor für den Wikidata Query Service.
package wikidata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
)

// UserAgentTransport fügt jeder Anfrage den konfigurierten User-Agent hinzu.
// Wikidata blockiert anonyme Standard-Clients.
type UserAgentTransport struct {
	Transport http.RoundTripper
	UserAgent string
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.UserAgent)
	return t.Transport.RoundTrip(req)
}

// Fetcher führt SPARQL-Queries gegen den Wikidata-Endpunkt aus.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger

	client  *http.Client
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher erstellt einen neuen Wikidata Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	limit := rate.Inf
	if cfg.QueryRateLimit > 0 {
		limit = rate.Limit(cfg.QueryRateLimit)
	}
	return &Fetcher{
		Config: cfg,
		Logger: logger.With(zap.String("provider", "wikidata")),
		client: &http.Client{
			Transport: &UserAgentTransport{Transport: http.DefaultTransport, UserAgent: cfg.WikidataUserAgent},
		},
		limiter: rate.NewLimiter(limit, 2),
		sleep:   sleepContext,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "wikidata"
}

// Execute führt den Query aus. RateLimited und Unavailable werden mit exponentiellem
// Backoff wiederholt, alle anderen Fehler kehren sofort zurück.
func (f *Fetcher) Execute(ctx context.Context, query string) ([]models.Row, error) {
	log := f.Logger.With(zap.String("query_hash", queryHash(query)))
	attempts := f.Config.QueryMaxRetries + 1

	for attempt := 1; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		log.Debug("Sende Query an Wikidata", zap.Int("attempt", attempt))
		start := time.Now()
		rows, retryAfter, err := f.do(ctx, query)
		queryDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			queriesTotal.WithLabelValues("success").Inc()
			log.Debug("Query abgeschlossen", zap.Int("rows", len(rows)), zap.Duration("took", time.Since(start)))
			return rows, nil
		}
		if !errs.IsRetryable(err) || attempt >= attempts {
			queriesTotal.WithLabelValues(outcome(err)).Inc()
			return nil, err
		}

		delay := f.backoff(attempt, retryAfter)
		retriesTotal.WithLabelValues(outcome(err)).Inc()
		log.Warn("Query fehlgeschlagen, neuer Versuch",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("kind", outcome(err)),
			zap.Error(err))
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

var limitOffset = regexp.MustCompile(`(?is)(\s*(LIMIT|OFFSET)\s+\d+)+\s*$`)

// ExecutePaginated ersetzt ein abschließendes LIMIT/OFFSET durch eigene Seitenangaben
// und hört bei der ersten unvollständigen Seite auf.
func (f *Fetcher) ExecutePaginated(ctx context.Context, query string, pageSize, maxPages int) ([]models.Row, error) {
	if pageSize <= 0 || maxPages <= 0 {
		return nil, errs.Invalid("page size and page count must be positive")
	}
	base := limitOffset.ReplaceAllString(query, "")

	var all []models.Row
	for page := 0; page < maxPages; page++ {
		q := fmt.Sprintf("%s\nLIMIT %d\nOFFSET %d", base, pageSize, page*pageSize)
		rows, err := f.Execute(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			break
		}
	}
	return all, nil
}

// do führt genau einen HTTP-Aufruf aus und klassifiziert das Ergebnis.
func (f *Fetcher) do(ctx context.Context, query string) ([]models.Row, time.Duration, error) {
	qctx, cancel := context.WithTimeout(ctx, f.Config.QueryTimeout)
	defer cancel()

	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(qctx, http.MethodPost, f.Config.WikidataEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", errs.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, f.transportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body sparqlResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			if ctx.Err() == nil && qctx.Err() != nil {
				return nil, 0, fmt.Errorf("%w: reading response after %s", errs.ErrTimeout, f.Config.QueryTimeout)
			}
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			return nil, 0, fmt.Errorf("%w: decode response: %v", errs.ErrUpstream, err)
		}
		return body.toRows(), 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%w: status 429", errs.ErrRateLimited)

	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, 0, fmt.Errorf("%w: status %d", errs.ErrUnavailable, resp.StatusCode)

	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, 0, fmt.Errorf("%w: status 504", errs.ErrTimeout)

	default:
		snippet := readSnippet(resp.Body)
		if resp.StatusCode == http.StatusInternalServerError && strings.Contains(strings.ToLower(snippet), "timeout") {
			return nil, 0, fmt.Errorf("%w: upstream query timeout", errs.ErrTimeout)
		}
		return nil, 0, fmt.Errorf("%w: status %d: %s", errs.ErrUpstream, resp.StatusCode, snippet)
	}
}

// transportError unterscheidet Abbruch durch den Aufrufer, eigenes Zeitlimit und Netzwerkfehler.
func (f *Fetcher) transportError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: no response within %s", errs.ErrTimeout, f.Config.QueryTimeout)
	}
	return fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
}

// backoff berechnet die Wartezeit vor Wiederholung Nr. retry (ab 1) mit bis zu 25% Jitter.
// Ein Retry-After des Servers wird respektiert, aber ebenfalls auf MaxDelay begrenzt.
func (f *Fetcher) backoff(retry int, retryAfter time.Duration) time.Duration {
	maxDelay := f.Config.QueryRetryMaxDelay
	d := float64(f.Config.QueryRetryBaseDelay) * math.Pow(f.Config.QueryRetryMultiplier, float64(retry-1))
	if d > float64(maxDelay) || math.IsInf(d, 0) || math.IsNaN(d) {
		d = float64(maxDelay)
	}
	d += d * 0.25 * rand.Float64()
	delay := time.Duration(d)
	if retryAfter > delay {
		delay = retryAfter
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func outcome(err error) string {
	switch {
	case errors.Is(err, errs.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, errs.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, errs.ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

func queryHash(q string) string {
	sum := sha256.Sum256([]byte(q))
	return hex.EncodeToString(sum[:6])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
