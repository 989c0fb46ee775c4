// Package validator implements the historical-validation gate (C4): it
// confirms a Finding only if the attacker's recent swap count, as reported
// by a subgraph, exceeds a threshold. A bounded-timeout JSON-over-HTTP
// client, single POST, decoded into a typed response struct.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/apperrors"
	"github.com/you/sandwich-sentinel/internal/domain"
	"github.com/you/sandwich-sentinel/internal/health"
)

const queryTimeout = 3 * time.Second

// Validator queries a subgraph for an address's recent swap count.
type Validator struct {
	url        string
	threshold  int
	httpClient *http.Client
	log        *zap.Logger
	hs         *health.BaseDataSource
}

func New(url string, threshold int, log *zap.Logger) *Validator {
	return &Validator{
		url:        url,
		threshold:  threshold,
		httpClient: &http.Client{Timeout: queryTimeout},
		log:        log,
		hs:         health.NewBaseDataSource("subgraph"),
	}
}

func (v *Validator) HealthSource() health.DataSource { return v.hs }

type swapCountQuery struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type swapCountResponse struct {
	Data struct {
		Account struct {
			SwapCount int `json:"swapCount"`
		} `json:"account"`
	} `json:"data"`
}

// Confirm queries the subgraph for f.AttackerAddress's recent swap count and
// reports whether it exceeds the threshold H, per §4.5. The query is
// stateless and idempotent: repeated calls for the same address are
// independent.
//
// On timeout or remote failure the policy is fail-closed: Confirm returns
// false (and a non-nil error for logging/metrics), never true, so a subgraph
// outage cannot flood the output with unvalidated noise.
func (v *Validator) Confirm(ctx context.Context, f domain.Finding, metrics *health.Metrics) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	body := swapCountQuery{
		Query: `query($addr: String!) { account(id: $addr) { swapCount } }`,
		Variables: map[string]any{
			"addr": f.AttackerAddress.Hex(),
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindValidation, "encode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindValidation, "build request", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.hs.SetError(err)
		if metrics != nil {
			metrics.ValidationDrops.Inc()
		}
		return false, apperrors.Wrap(apperrors.KindValidation, "subgraph query failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("subgraph returned status %d", resp.StatusCode)
		v.hs.SetError(err)
		if metrics != nil {
			metrics.ValidationDrops.Inc()
		}
		return false, apperrors.Wrap(apperrors.KindValidation, "", err)
	}

	var parsed swapCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		v.hs.SetError(err)
		if metrics != nil {
			metrics.ValidationDrops.Inc()
		}
		return false, apperrors.Wrap(apperrors.KindValidation, "decode response", err)
	}

	v.hs.SetSuccess()
	confirmed := parsed.Data.Account.SwapCount > v.threshold
	if metrics != nil {
		if confirmed {
			metrics.ValidationPasses.Inc()
		} else {
			metrics.ValidationDrops.Inc()
		}
	}
	return confirmed, nil
}
