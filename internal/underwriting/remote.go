package underwriting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"net/http"
	"strings"
)

// RemoteEngine delegates scoring to an HTTP service. Throttling and server
// faults are reported with transient kinds so a ResilientEngine retries them.
// It is safe for concurrent use.
type RemoteEngine struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

var _ Engine = (*RemoteEngine)(nil)

// NewRemoteEngine constructs an engine posting applications to endpoint.
func NewRemoteEngine(httpClient *http.Client, endpoint, token string) *RemoteEngine {
	return &RemoteEngine{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      token,
	}
}

type remoteDocument struct {
	Type       domain.DocumentType `json:"type"`
	Confidence int                 `json:"confidence"`
}

type remoteRequest struct {
	PersonalInfo domain.PersonalInfo `json:"personalInfo"`
	Documents    []remoteDocument    `json:"documents"`
	LoanDetails  domain.LoanDetails  `json:"loanDetails"`
}

func (e *RemoteEngine) Underwrite(ctx context.Context,
	info domain.PersonalInfo,
	docs []domain.Document,
	loan domain.LoanDetails) (domain.UnderwritingResult, error) {
	body := remoteRequest{
		PersonalInfo: info,
		Documents:    make([]remoteDocument, 0, len(docs)),
		LoanDetails:  loan,
	}
	for _, doc := range docs {
		body.Documents = append(body.Documents, remoteDocument{
			Type:       doc.Extracted.Type,
			Confidence: doc.Extracted.Confidence,
		})
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return domain.UnderwritingResult{}, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.UnderwritingResult{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Api-Key", e.token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.UnderwritingResult{}, fmt.Errorf("could not send request: %w", err)
		}

		return domain.UnderwritingResult{}, serrors.Wrap(serrors.ErrUnavailable, err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.UnderwritingResult{}, fmt.Errorf("could not read response body: %w", err)
	}
	msg := strings.TrimSpace(string(b))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.UnderwritingResult{}, serrors.With(serrors.ErrRateLimited, "rate limited: %s", msg)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return domain.UnderwritingResult{}, serrors.With(serrors.ErrTimeout, "scoring timed out: %s", msg)
	case resp.StatusCode >= 500:
		return domain.UnderwritingResult{}, serrors.With(serrors.ErrUnavailable, "scoring unavailable: %s", msg)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return domain.UnderwritingResult{}, fmt.Errorf("scoring failed with status %d: %s", resp.StatusCode, msg)
	}

	var result domain.UnderwritingResult
	if err := json.Unmarshal(b, &result); err != nil {
		return domain.UnderwritingResult{}, fmt.Errorf("could not decode response: %w", err)
	}
	if result.Reasons == nil {
		result.Reasons = []string{}
	}

	return result, nil
}
