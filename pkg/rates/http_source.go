package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"tradepost/domain"

	"github.com/PaesslerAG/jsonpath"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PairPath locates one conversion factor inside the provider's JSON
// response. Invert is set when the provider quotes base-to-foreign, so the
// factor we need is its reciprocal.
type PairPath struct {
	Pair   domain.CurrencyPair
	Path   string
	Invert bool
}

// HTTPSource reads rates from a JSON endpoint.
type HTTPSource struct {
	url     string
	pairs   []PairPath
	timeout time.Duration
}

func NewHTTPSource(url string, timeout time.Duration, pairs ...PairPath) *HTTPSource {
	return &HTTPSource{
		url:     url,
		pairs:   pairs,
		timeout: timeout,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (domain.Rates, error) {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); timeout <= 0 || until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("rates request to %s: %w", s.url, context.DeadlineExceeded)
	}

	agent := fiber.Get(s.url).
		Timeout(timeout).
		Add(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("rates request to %s: %w: %w", s.url, domain.ErrExternalService, errs[0])
	}
	if code >= fiber.StatusMultipleChoices {
		return nil, fmt.Errorf("rates request to %s returned %d: %w", s.url, code, domain.ErrExternalService)
	}

	return s.parse(body)
}

func (s *HTTPSource) parse(body []byte) (domain.Rates, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed rates response: %w: %w", domain.ErrExternalService, err)
	}

	out := make(domain.Rates, len(s.pairs))
	for _, p := range s.pairs {
		factor, err := extract(doc, p.Path)
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w: %w", p.Pair, domain.ErrExternalService, err)
		}
		if !factor.IsPositive() {
			return nil, fmt.Errorf("rate %s is not positive: %w", p.Pair, domain.ErrExternalService)
		}
		if p.Invert {
			factor = decimal.NewFromInt(1).DivRound(factor, 6)
		}
		out[p.Pair] = factor
	}

	return out, nil
}

func extract(doc any, path string) (decimal.Decimal, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("path %q: %w", path, err)
	}
	// jsonpath may answer a list of one element for filter expressions
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}

	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("path %q: not a number: %v", path, v)
	}
}
