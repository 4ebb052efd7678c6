package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"basketwatch/internal/config"
	apierrors "basketwatch/internal/errors"
)

// EIAClient fetches weekly retail fuel price series from the EIA v2 API
// (e.g. EMM_EPMR_PTE_NUS_DPG, regular gasoline, US average).
type EIAClient struct {
	baseURL string
	apiKey  string
	http    httpDoer
	limiter *rate.Limiter
}

// NewEIAClient builds a client from the upstream configuration.
func NewEIAClient(cfg config.UpstreamConfig) *EIAClient {
	return &EIAClient{
		baseURL: cfg.EIABaseURL,
		apiKey:  cfg.EIAAPIKey,
		http:    newHTTPClient(cfg),
		limiter: newLimiter(cfg),
	}
}

// Source identifies the upstream for series metadata.
func (c *EIAClient) Source() string { return "EIA" }

// flexFloat tolerates the EIA API reporting values as numbers or strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return errNullValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

var errNullValue = errors.New("null value")

type eiaDataItem struct {
	Period string    `json:"period"`
	Series string    `json:"series"`
	Value  flexFloat `json:"value"`
}

type eiaResponse struct {
	Response *struct {
		Data []json.RawMessage `json:"data"`
	} `json:"response"`
}

// FetchSeries requests weekly points between start and end. EIA periods are
// already YYYY-MM-DD dates and pass through as observation dates.
func (c *EIAClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]RawObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "rate limiter wait cancelled", err)
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("frequency", "weekly")
	query.Set("data[0]", "value")
	query.Set("facets[series][]", seriesID)
	query.Set("start", start.Format("2006-01-02"))
	query.Set("end", end.Format("2006-01-02"))
	query.Set("sort[0][column]", "period")
	query.Set("sort[0][direction]", "asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "non-2xx response", nil)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "read response", err)
	}

	var decoded eiaResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "decode response", err)
	}
	if decoded.Response == nil {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "response missing data envelope", nil)
	}

	var observations []RawObservation
	for _, blob := range decoded.Response.Data {
		var item eiaDataItem
		if err := json.Unmarshal(blob, &item); err != nil {
			// Null or unparsable values are skipped, not fabricated.
			continue
		}
		price := float64(item.Value)
		observations = append(observations, RawObservation{
			Date:     item.Period,
			Price:    price,
			MinPrice: price,
			MaxPrice: price,
		})
	}
	return observations, nil
}
