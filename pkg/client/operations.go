package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// ValidationResult mirrors the server's number-validation response.
type ValidationResult struct {
	Valid  bool            `json:"valid"`
	Number *ProcessNumber  `json:"number,omitempty"`
	Code   string          `json:"code,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// ProcessNumber is the parsed form of a CNJ process number.
type ProcessNumber struct {
	Sequential   string `json:"sequential"`
	CheckDigits  string `json:"check_digits"`
	Year         int    `json:"year"`
	Segment      int    `json:"segment"`
	TribunalID   string `json:"tribunal_id"`
	OriginUnit   string `json:"origin_unit"`
	SegmentName  string `json:"segment_name,omitempty"`
	TribunalName string `json:"tribunal_name,omitempty"`
	TribunalCode string `json:"tribunal_code,omitempty"`
	Region       string `json:"region,omitempty"`
}

// TribunalConfig is one registry entry.
type TribunalConfig struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Segment  int    `json:"segment"`
	Class    string `json:"class"`
	Endpoint string `json:"endpoint,omitempty"`
	IsActive bool   `json:"is_active"`
}

// TribunalPatch updates selected fields of a registry entry.  Nil fields
// are left unchanged.
type TribunalPatch struct {
	Name     *string `json:"name,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// RateLimitUsage is the limiter snapshot for one tribunal.
type RateLimitUsage struct {
	LastMinute   int           `json:"last_minute"`
	LastHour     int           `json:"last_hour"`
	LastDay      int           `json:"last_day"`
	BlockedFor   time.Duration `json:"blocked_for,omitempty"`
	BlockedUntil *time.Time    `json:"blocked_until,omitempty"`
}

// ScheduleEntry is one polling schedule.
type ScheduleEntry struct {
	ID             string     `json:"id"`
	ProcessID      string     `json:"process_id"`
	CNJNumber      string     `json:"cnj_number"`
	TribunalCode   string     `json:"tribunal_code"`
	FrequencyHours float64    `json:"frequency_hours"`
	Priority       string     `json:"priority"`
	State          string     `json:"state"`
	LastExecution  *time.Time `json:"last_execution,omitempty"`
	NextExecution  *time.Time `json:"next_execution,omitempty"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
}

// Novelty is one detected movement novelty.
type Novelty struct {
	ID           string    `json:"id"`
	ProcessID    string    `json:"process_id"`
	CNJNumber    string    `json:"cnj_number"`
	TribunalName string    `json:"tribunal_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Priority     string    `json:"priority"`
	Tags         []string  `json:"tags,omitempty"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CleanupResult summarizes one cleanup pass.
type CleanupResult struct {
	NoveltiesExpired int           `json:"novelties_expired"`
	CacheEvicted     int           `json:"cache_evicted"`
	LogsPurged       int           `json:"logs_purged"`
	Duration         time.Duration `json:"duration"`
	RanAt            time.Time     `json:"ran_at"`
	Errors           []string      `json:"errors,omitempty"`
}

// QueryMovements runs one on-demand movement query.  A query the server
// could not satisfy (blocked tribunal, rate limit, upstream failure) comes
// back as a result with Success=false rather than an error.
func (c *Client) QueryMovements(ctx context.Context, processNumber string) (*ptypes.MovementQueryResult, error) {
	var result ptypes.MovementQueryResult
	err := c.do(ctx, http.MethodPost, "/api/v1/processes/query",
		map[string]string{"process_number": processNumber}, &result)
	if err == nil {
		return &result, nil
	}

	// The server maps failed queries onto error statuses but the body is
	// still the full result document.
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.raw) > 0 {
		var failed ptypes.MovementQueryResult
		if jsonErr := json.Unmarshal(apiErr.raw, &failed); jsonErr == nil && failed.ErrorCode != "" {
			return &failed, nil
		}
	}
	return nil, err
}

// ValidateNumber checks a CNJ process number without side effects.
func (c *Client) ValidateNumber(ctx context.Context, processNumber string) (*ValidationResult, error) {
	var result ValidationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/processes/validate",
		map[string]string{"process_number": processNumber}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartMonitoring places a process under scheduled polling.
func (c *Client) StartMonitoring(ctx context.Context, processNumber string, frequencyHours float64, priority string) (*ScheduleEntry, error) {
	req := map[string]interface{}{
		"process_number":  processNumber,
		"frequency_hours": frequencyHours,
		"priority":        priority,
	}
	var entry ScheduleEntry
	if err := c.do(ctx, http.MethodPost, "/api/v1/monitoring", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// StopMonitoring removes a process's schedule.
func (c *Client) StopMonitoring(ctx context.Context, processNumber string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/monitoring/stop",
		map[string]string{"process_number": processNumber}, nil)
}

// ListSchedules returns every schedule entry.
func (c *Client) ListSchedules(ctx context.Context) ([]*ScheduleEntry, error) {
	var body struct {
		Schedules []*ScheduleEntry `json:"schedules"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/schedules", nil, &body); err != nil {
		return nil, err
	}
	return body.Schedules, nil
}

// PauseSchedule suspends one schedule.
func (c *Client) PauseSchedule(ctx context.Context, entryID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/schedules/%s/pause", entryID), nil, nil)
}

// ResumeSchedule reactivates a paused schedule.
func (c *Client) ResumeSchedule(ctx context.Context, entryID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/schedules/%s/resume", entryID), nil, nil)
}

// ListUnreadNovelties returns up to limit unread novelties.
func (c *Client) ListUnreadNovelties(ctx context.Context, limit int) ([]*Novelty, error) {
	path := "/api/v1/novelties"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var body struct {
		Novelties []*Novelty `json:"novelties"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Novelties, nil
}

// MarkNoveltiesRead flags the given novelties as read, returning how many
// changed.
func (c *Client) MarkNoveltiesRead(ctx context.Context, ids []string) (int, error) {
	var body struct {
		Marked int `json:"marked"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/novelties/read",
		map[string][]string{"ids": ids}, &body); err != nil {
		return 0, err
	}
	return body.Marked, nil
}

// MarkProcessNoveltiesRead flags every unread novelty of one process as
// read, returning how many changed.
func (c *Client) MarkProcessNoveltiesRead(ctx context.Context, processID string) (int, error) {
	var body struct {
		Marked int `json:"marked"`
	}
	path := fmt.Sprintf("/api/v1/processes/%s/novelties/read", url.PathEscape(processID))
	if err := c.do(ctx, http.MethodPost, path, nil, &body); err != nil {
		return 0, err
	}
	return body.Marked, nil
}

// ListTribunals returns the registered tribunals, optionally filtered by
// judiciary segment (0 means all).
func (c *Client) ListTribunals(ctx context.Context, segment int) ([]*TribunalConfig, error) {
	path := "/api/v1/tribunals"
	if segment > 0 {
		path += "?segment=" + url.QueryEscape(fmt.Sprint(segment))
	}
	var body struct {
		Tribunals []*TribunalConfig `json:"tribunals"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Tribunals, nil
}

// UpdateTribunal patches one tribunal's registry entry.
func (c *Client) UpdateTribunal(ctx context.Context, code string, patch TribunalPatch) (*TribunalConfig, error) {
	var cfg TribunalConfig
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tribunals/"+url.PathEscape(code), patch, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetRateLimitUsage reports the limiter's window counts for one tribunal.
func (c *Client) GetRateLimitUsage(ctx context.Context, code string) (*RateLimitUsage, error) {
	var usage RateLimitUsage
	if err := c.do(ctx, http.MethodGet, "/api/v1/tribunals/"+url.PathEscape(code)+"/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// RunCleanup triggers a full cleanup pass.
func (c *Client) RunCleanup(ctx context.Context) (*CleanupResult, error) {
	var result CleanupResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/cleanup", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStats fetches the raw statistics document.
func (c *Client) GetStats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
