package labeling

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const imaggaBaseURL = "https://api.imagga.com/v2"

type imaggaTag struct {
	Confidence float64 `json:"confidence"`
	Tag        struct {
		En string `json:"en"`
	} `json:"tag"`
}

type imaggaTagsResponse struct {
	Result struct {
		Tags []imaggaTag `json:"tags"`
	} `json:"result"`
	Status struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"status"`
}

// ImaggaOpts configure the Imagga tagging client.
type ImaggaOpts struct {
	BaseURL   string // defaults to the public API
	APIKey    string
	APISecret string
	Options   Options
}

// ImaggaSource labels images with the Imagga tagging API, which returns
// visual tags with 0-100 confidence scores.
type ImaggaSource struct {
	httpClient *resty.Client
	opts       Options
}

// NewImaggaSource creates an Imagga-backed label source.
func NewImaggaSource(opts ImaggaOpts) *ImaggaSource {
	baseURL := imaggaBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	httpClient := resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetBasicAuth(opts.APIKey, opts.APISecret).
		SetHeader("Accept", "application/json")

	return &ImaggaSource{httpClient: httpClient, opts: opts.Options}
}

// DetectLabels implements the Source interface using Imagga's /tags endpoint.
func (s *ImaggaSource) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	result := &imaggaTagsResponse{}

	req := s.httpClient.NewRequest().
		SetContext(ctx).
		SetResult(result).
		SetFileReader("image", "image", bytes.NewReader(image))
	if s.opts.MinConfidence > 0 {
		req.SetQueryParam("threshold", strconv.FormatFloat(s.opts.MinConfidence, 'f', -1, 64))
	}
	if s.opts.MaxLabels > 0 {
		req.SetQueryParam("limit", strconv.Itoa(s.opts.MaxLabels))
	}

	if _, err := handleError(req.Post("/tags")); err != nil {
		return nil, err
	}

	labels := make([]Label, 0, len(result.Result.Tags))
	for _, t := range result.Result.Tags {
		labels = append(labels, Label{Name: t.Tag.En, Confidence: t.Confidence})
	}
	return s.opts.apply(labels), nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
