package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"basketwatch/internal/config"
	apierrors "basketwatch/internal/errors"
)

// BLSClient fetches monthly average price series from the BLS public
// timeseries API (e.g. APU0000708111, eggs per dozen).
type BLSClient struct {
	baseURL string
	apiKey  string
	http    httpDoer
	limiter *rate.Limiter
}

// NewBLSClient builds a client from the upstream configuration.
func NewBLSClient(cfg config.UpstreamConfig) *BLSClient {
	return &BLSClient{
		baseURL: cfg.BLSBaseURL,
		apiKey:  cfg.BLSAPIKey,
		http:    newHTTPClient(cfg),
		limiter: newLimiter(cfg),
	}
}

// Source identifies the upstream for series metadata.
func (c *BLSClient) Source() string { return "BLS" }

type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results *struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// FetchSeries requests the series for the calendar years spanning start to
// end. BLS reports monthly points; each maps to the first of its month.
// The M13 annual-average period is skipped.
func (c *BLSClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]RawObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "rate limiter wait cancelled", err)
	}

	body, err := json.Marshal(blsRequest{
		SeriesID:        []string{seriesID},
		StartYear:       strconv.Itoa(start.Year()),
		EndYear:         strconv.Itoa(end.Year()),
		RegistrationKey: c.apiKey,
	})
	if err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, apierrors.NewFetchError(seriesID, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var decoded blsResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "decode response", err)
	}
	if decoded.Status != "REQUEST_SUCCEEDED" {
		msg := "request not succeeded"
		if len(decoded.Message) > 0 {
			msg = decoded.Message[0]
		}
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, msg, nil)
	}
	if decoded.Results == nil || len(decoded.Results.Series) == 0 {
		return nil, apierrors.NewFetchError(seriesID, resp.StatusCode, "response missing data envelope", nil)
	}

	var observations []RawObservation
	for _, item := range decoded.Results.Series[0].Data {
		if len(item.Period) != 3 || item.Period[0] != 'M' || item.Period == "M13" {
			continue
		}
		month, err := strconv.Atoi(item.Period[1:])
		if err != nil || month < 1 || month > 12 {
			continue
		}
		price, err := strconv.ParseFloat(item.Value, 64)
		if err != nil {
			continue
		}
		observations = append(observations, RawObservation{
			Date:     fmt.Sprintf("%s-%02d-01", item.Year, month),
			Price:    price,
			MinPrice: price,
			MaxPrice: price,
		})
	}
	return observations, nil
}
