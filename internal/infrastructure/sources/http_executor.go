// Package sources implements tribunal query executors.  The HTTP executor
// is the generic adapter for courts whose consultation systems expose a
// JSON endpoint; scraping adapters for courts without one plug into the
// same registry.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/internal/domain/novelty"
	domproc "github.com/vigiajus/vigiajus/internal/domain/process"
	"github.com/vigiajus/vigiajus/internal/domain/tribunal"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// maxResponseBytes caps how much of a consultation response is read.
const maxResponseBytes = 4 << 20

// HTTPExecutor queries a court's consultation endpoint over HTTP.  The
// endpoint comes from the tribunal registry at query time, so registry
// patches take effect without re-wiring.
type HTTPExecutor struct {
	registry   *tribunal.Registry
	httpClient *http.Client
	clk        clock.Clock
	logger     logging.Logger
}

var _ domproc.QueryExecutor = (*HTTPExecutor)(nil)

// ExecutorOption configures optional collaborators.
type ExecutorOption func(*HTTPExecutor)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ExecutorOption {
	return func(e *HTTPExecutor) { e.httpClient = hc }
}

// WithClock overrides the clock, for tests.
func WithClock(c clock.Clock) ExecutorOption {
	return func(e *HTTPExecutor) { e.clk = c }
}

// NewHTTPExecutor builds the generic HTTP executor.  timeout bounds each
// consultation request.
func NewHTTPExecutor(registry *tribunal.Registry, timeout time.Duration, logger logging.Logger, opts ...ExecutorOption) *HTTPExecutor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &HTTPExecutor{
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout},
		clk:        clock.System(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// consultationResponse is the wire document served by court consultation
// endpoints.
type consultationResponse struct {
	BasicInfo   *ptypes.BasicInfo `json:"basic_info"`
	Movements   []ptypes.Movement `json:"movements"`
	ContentHash string            `json:"content_hash"`
}

// QueryProcess fetches the current movement list for one process.
// Transport-level failures are reported through the result status; the
// error return is reserved for unusable wiring (no endpoint configured).
func (e *HTTPExecutor) QueryProcess(ctx context.Context, number *cnj.ProcessNumber) (*ptypes.ProcessQueryResult, error) {
	cfg, err := e.registry.Get(number.TribunalCode)
	if err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, errors.Newf(errors.ErrCodeNoExecutor,
			"tribunal %s não tem endpoint de consulta configurado", cfg.Code)
	}

	url := fmt.Sprintf("%s/processos/%s/movimentacoes", cfg.Endpoint, number.CleanDigits())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceError, "requisição de consulta inválida")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		status := ptypes.QueryError
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			status = ptypes.QueryTimeout
		}
		e.logger.Warn("tribunal query failed",
			logging.String("tribunal_code", cfg.Code), logging.Err(err))
		return e.result(status, nil, err.Error()), nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return e.result(ptypes.QueryNotFound, nil, ""), nil
	case http.StatusTooManyRequests:
		return e.result(ptypes.QueryRateLimited, nil, "tribunal recusou por excesso de consultas"), nil
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		return e.result(ptypes.QueryBlocked, nil, "acesso ao processo bloqueado pelo tribunal"), nil
	default:
		return e.result(ptypes.QueryError, nil,
			fmt.Sprintf("tribunal respondeu HTTP %d", resp.StatusCode)), nil
	}

	var doc consultationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return e.result(ptypes.QueryError, nil, "resposta do tribunal ilegível: "+err.Error()), nil
	}

	result := e.result(ptypes.QuerySuccess, &doc, "")
	return result, nil
}

func (e *HTTPExecutor) result(status ptypes.QueryStatus, doc *consultationResponse, detail string) *ptypes.ProcessQueryResult {
	r := &ptypes.ProcessQueryResult{
		Status:      status,
		ErrorDetail: detail,
		QueriedAt:   e.clk.Now(),
	}
	if doc != nil {
		r.BasicInfo = doc.BasicInfo
		r.Movements = doc.Movements
		r.ContentHash = doc.ContentHash
		if r.ContentHash == "" {
			r.ContentHash = novelty.HashMovements(doc.Movements)
		}
	}
	return r
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	for e := err; e != nil; {
		if t, ok := e.(timeouter); ok && t.Timeout() {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}
