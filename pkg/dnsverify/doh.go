package dnsverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	GoogleDoHEndpoint     = "https://dns.google/resolve"
	CloudflareDoHEndpoint = "https://cloudflare-dns.com/dns-query"
)

// DNS response codes and record types used by the JSON API.
const (
	rcodeNoError  = 0
	rcodeServFail = 2
	rcodeNXDomain = 3
	typeTXT       = 16
)

// maxDoHBody bounds the response size read from a provider.
const maxDoHBody = 64 << 10

// DoHResolver queries a DNS-over-HTTPS provider through its JSON API.
// Every failure is retryable so the chain moves on to the next provider.
type DoHResolver struct {
	name     string
	endpoint string
	client   *http.Client
}

var _ Resolver = (*DoHResolver)(nil)

// NewDoHResolver creates a resolver for the JSON API at endpoint.
// A nil client uses http.DefaultClient; timeouts come from the context.
func NewDoHResolver(name, endpoint string, client *http.Client) *DoHResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &DoHResolver{name: name, endpoint: endpoint, client: client}
}

// Google returns a resolver for dns.google.
func Google(client *http.Client) *DoHResolver {
	return NewDoHResolver("google", GoogleDoHEndpoint, client)
}

// Cloudflare returns a resolver for cloudflare-dns.com.
func Cloudflare(client *http.Client) *DoHResolver {
	return NewDoHResolver("cloudflare", CloudflareDoHEndpoint, client)
}

func (d *DoHResolver) Name() string { return d.name }

type dohResponse struct {
	Status  int         `json:"Status"`
	Answer  []dohAnswer `json:"Answer"`
	Comment any         `json:"Comment"`
}

type dohAnswer struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	Data string `json:"data"`
}

// LookupTXT queries the provider. NXDOMAIN and an empty answer both
// yield zero records.
func (d *DoHResolver) LookupTXT(ctx context.Context, host string) ([]string, error) {
	q := url.Values{}
	q.Set("name", host)
	q.Set("type", "TXT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, d.fail(err)
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, d.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, d.fail(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body dohResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDoHBody)).Decode(&body); err != nil {
		return nil, d.fail(fmt.Errorf("decode response: %w", err))
	}

	switch body.Status {
	case rcodeNoError:
	case rcodeNXDomain:
		return []string{}, nil
	case rcodeServFail:
		return nil, d.fail(fmt.Errorf("server failure for %s%s", host, comment(body.Comment)))
	default:
		return nil, d.fail(fmt.Errorf("query failed with status %d%s", body.Status, comment(body.Comment)))
	}

	records := make([]string, 0, len(body.Answer))
	for _, a := range body.Answer {
		if a.Type != typeTXT {
			continue
		}
		records = append(records, unquoteDoH(a.Data))
	}
	return records, nil
}

func (d *DoHResolver) fail(err error) error {
	return errors.Join(ErrRetryable, ErrDNSLookupFailed, fmt.Errorf("%s doh: %w", d.name, err))
}

// unquoteDoH turns presentation-format TXT data into the record value.
// Multi-segment data such as `"abc" "def"` is concatenated.
func unquoteDoH(data string) string {
	data = strings.TrimSpace(data)
	if strings.Contains(data, `" "`) {
		data = strings.ReplaceAll(data, `" "`, "")
	}
	data = strings.TrimPrefix(data, `"`)
	data = strings.TrimSuffix(data, `"`)
	data = strings.ReplaceAll(data, `\"`, `"`)
	return strings.ReplaceAll(data, `\`, "")
}

func comment(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		if v == "" {
			return ""
		}
		return " - " + v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return " - " + strings.Join(parts, "; ")
	default:
		return fmt.Sprintf(" - %v", v)
	}
}
