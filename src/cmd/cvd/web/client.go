package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// HttpResponse is a response body decoded to T along with its status code.
type HttpResponse[T any] struct {
	Data       T
	StatusCode int
}

// HttpSuccess reports a 2xx status.
func (r HttpResponse[T]) HttpSuccess() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// HttpClientError reports a 4xx status.
func (r HttpResponse[T]) HttpClientError() bool { return r.StatusCode >= 400 && r.StatusCode < 500 }

// HttpServerError reports a 5xx status.
func (r HttpResponse[T]) HttpServerError() bool { return r.StatusCode >= 500 && r.StatusCode < 600 }

// HttpClient performs HTTP requests. Headers are "Key: Value" strings. An
// error means no response was received; any status code is a response.
type HttpClient interface {
	GetToString(ctx context.Context, url string, headers ...string) (HttpResponse[string], error)
	PostToString(ctx context.Context, url, data string, headers ...string) (HttpResponse[string], error)
	PostToJSON(ctx context.Context, url string, data interface{}, headers ...string) (HttpResponse[map[string]interface{}], error)
	DeleteToJSON(ctx context.Context, url string, headers ...string) (HttpResponse[map[string]interface{}], error)
	// DownloadToFile saves the response body at path, replacing it only on
	// a 2xx status. Data holds path.
	DownloadToFile(ctx context.Context, url, path string, headers ...string) (HttpResponse[string], error)
	UrlEscape(text string) string
}

// Config is the retry policy of a Client. Requests that fail to connect or
// get a 5xx status are retried.
type Config struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultConfig retries four times, waiting between one and thirty seconds.
func DefaultConfig() Config {
	return Config{RetryMax: 4, RetryWaitMin: time.Second, RetryWaitMax: 30 * time.Second}
}

// Client is an HttpClient backed by retryablehttp.
type Client struct {
	client *retryablehttp.Client
}

var _ HttpClient = (*Client)(nil)

// NewHttpClient returns a Client with the given retry policy.
func NewHttpClient(cfg Config) *Client {
	c := retryablehttp.NewClient()
	c.Logger = &logrusLeveledLogger{log.StandardLogger()}
	c.RetryMax = cfg.RetryMax
	c.RetryWaitMin = cfg.RetryWaitMin
	c.RetryWaitMax = cfg.RetryWaitMax
	// hand the last response back rather than an error once retries run out
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{client: c}
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}, headers []string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s", method, url)
	}
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Errorf("malformed header %q, want \"Key: Value\"", h)
		}
		req.Header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	log.WithFields(log.Fields{"method": method, "url": url}).Debug("http request")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	return resp, nil
}

func (c *Client) toString(ctx context.Context, method, url string, body interface{}, headers []string) (HttpResponse[string], error) {
	resp, err := c.do(ctx, method, url, body, headers)
	if err != nil {
		return HttpResponse[string]{}, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return HttpResponse[string]{}, errors.Wrapf(err, "reading response of %s %s", method, url)
	}
	return HttpResponse[string]{Data: string(data), StatusCode: resp.StatusCode}, nil
}

func (c *Client) toJSON(ctx context.Context, method, url string, body interface{}, headers []string) (HttpResponse[map[string]interface{}], error) {
	resp, err := c.toString(ctx, method, url, body, headers)
	if err != nil {
		return HttpResponse[map[string]interface{}]{}, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Data), &data); err != nil {
		log.WithError(err).WithField("url", url).Error("Could not parse json response")
		data = map[string]interface{}{
			"error":    "Failed to parse json: " + err.Error(),
			"response": resp.Data,
		}
	}
	return HttpResponse[map[string]interface{}]{Data: data, StatusCode: resp.StatusCode}, nil
}

func (c *Client) GetToString(ctx context.Context, url string, headers ...string) (HttpResponse[string], error) {
	return c.toString(ctx, http.MethodGet, url, nil, headers)
}

func (c *Client) PostToString(ctx context.Context, url, data string, headers ...string) (HttpResponse[string], error) {
	return c.toString(ctx, http.MethodPost, url, []byte(data), headers)
}

// PostToJSON posts data, which is sent as is when it is a string or byte
// slice and JSON encoded otherwise, and decodes a JSON object response.
// A response that is not a JSON object is reported in Data under "error"
// and "response".
func (c *Client) PostToJSON(ctx context.Context, url string, data interface{}, headers ...string) (HttpResponse[map[string]interface{}], error) {
	var body []byte
	switch d := data.(type) {
	case string:
		body = []byte(d)
	case []byte:
		body = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return HttpResponse[map[string]interface{}]{}, errors.Wrap(err, "encoding request body")
		}
		body = b
		headers = append(headers, "Content-Type: application/json")
	}
	return c.toJSON(ctx, http.MethodPost, url, body, headers)
}

func (c *Client) DeleteToJSON(ctx context.Context, url string, headers ...string) (HttpResponse[map[string]interface{}], error) {
	return c.toJSON(ctx, http.MethodDelete, url, nil, headers)
}

func (c *Client) DownloadToFile(ctx context.Context, url, path string, headers ...string) (HttpResponse[string], error) {
	log.Debugf("Saving %q to %q", url, path)
	resp, err := c.do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return HttpResponse[string]{}, err
	}
	defer resp.Body.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return HttpResponse[string]{}, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return HttpResponse[string]{}, err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return HttpResponse[string]{}, errors.Wrapf(err, "downloading %s", url)
	}
	log.Debugf("Downloaded %d total bytes from %q to %q", n, url, path)

	out := HttpResponse[string]{Data: path, StatusCode: resp.StatusCode}
	if !out.HttpSuccess() {
		return out, nil
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return HttpResponse[string]{}, err
	}
	renamed = true
	return out, nil
}

// UrlEscape percent-encodes text for use in a URL path or query, encoding
// spaces as %20.
func (c *Client) UrlEscape(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
