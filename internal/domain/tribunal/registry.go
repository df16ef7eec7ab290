// Package tribunal maintains the routing registry mapping CNJ tribunal
// codes to court configurations: display name, class (which selects the
// default rate-limit budget), query endpoint, and availability flag.
package tribunal

import (
	"sort"
	"sync"

	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

// Class groups tribunals that share a default request budget.
type Class string

const (
	ClassSuperior  Class = "superior"
	ClassFederal   Class = "federal"
	ClassState     Class = "state"
	ClassLabor     Class = "labor"
	ClassElectoral Class = "electoral"
	ClassMilitary  Class = "military"
)

// Config describes one court known to the engine.
type Config struct {
	// Code is the routing key "J.TR", e.g. "8.26".
	Code    string `json:"code"`
	Name    string `json:"name"`
	Segment int    `json:"segment"`
	Class   Class  `json:"class"`

	// Endpoint is the base URL of the court's consultation system.  Empty
	// when no executor has been registered for the court yet.
	Endpoint string `json:"endpoint,omitempty"`

	// IsActive gates scheduling and querying.  An inactive tribunal is
	// still identifiable for diagnostics.
	IsActive bool `json:"is_active"`
}

// ConfigPatch carries the mutable subset of Config for UpdateConfig.
// Nil fields are left unchanged.
type ConfigPatch struct {
	Name     *string `json:"name,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Identification is the result of resolving a process number to a court.
// When the code is unknown, Suggestions carries up to three same-segment
// candidates for the caller to display.
type Identification struct {
	Tribunal    *Config
	Number      *cnj.ProcessNumber
	Suggestions []*Config
}

// maxSuggestions caps the same-segment candidates returned on a miss.
const maxSuggestions = 3

// Registry is the in-memory tribunal table.  Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parser  *cnj.Parser
	configs map[string]*Config
}

// NewRegistry builds a registry pre-populated with every tribunal the CNJ
// numbering tables define, all marked active.  Callers deactivate or patch
// entries afterwards from configuration.
func NewRegistry(parser *cnj.Parser) *Registry {
	r := &Registry{
		parser:  parser,
		configs: make(map[string]*Config),
	}
	for _, c := range seedConfigs() {
		r.configs[c.Code] = c
	}
	return r
}

// Identify parses the process number and resolves its tribunal.  Unknown
// codes fail with suggestions attached to the returned Identification;
// inactive tribunals fail with the config still populated so callers can
// display what was matched.
func (r *Registry) Identify(processNumber string) (*Identification, error) {
	number, err := r.parser.Parse(processNumber)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[number.TribunalCode]
	if !ok {
		// The parser's tables and the registry seed normally agree; a miss
		// here means the registry was trimmed at runtime.
		return &Identification{
				Number:      number,
				Suggestions: r.sameSegmentLocked(number.Segment),
			}, errors.Newf(errors.ErrCodeTribunalNotFound,
				"tribunal %s não cadastrado", number.TribunalCode)
	}

	ident := &Identification{Tribunal: cloneConfig(cfg), Number: number}
	if !cfg.IsActive {
		return ident, errors.Newf(errors.ErrCodeTribunalUnavailable,
			"tribunal %s (%s) está indisponível", cfg.Code, cfg.Name)
	}
	return ident, nil
}

// Get returns the config for a tribunal code.
func (r *Registry) Get(code string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[code]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTribunalNotFound, "tribunal %s não cadastrado", code)
	}
	return cloneConfig(cfg), nil
}

// GetAll returns every registered tribunal sorted by code.
func (r *Registry) GetAll() []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cloneConfig(cfg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// GetBySegment returns the tribunals of one judiciary segment sorted by code.
func (r *Registry) GetBySegment(segment int) []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sameSegmentAllLocked(segment)
}

// UpdateConfig merges patch into the stored config.  The merge is in-place
// on the in-memory map, so there is no partial-failure state to roll back.
func (r *Registry) UpdateConfig(code string, patch ConfigPatch) (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.configs[code]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTribunalNotFound, "tribunal %s não cadastrado", code)
	}
	if patch.Name != nil {
		cfg.Name = *patch.Name
	}
	if patch.Endpoint != nil {
		cfg.Endpoint = *patch.Endpoint
	}
	if patch.IsActive != nil {
		cfg.IsActive = *patch.IsActive
	}
	return cloneConfig(cfg), nil
}

func (r *Registry) sameSegmentLocked(segment int) []*Config {
	all := r.sameSegmentAllLocked(segment)
	if len(all) > maxSuggestions {
		all = all[:maxSuggestions]
	}
	return all
}

func (r *Registry) sameSegmentAllLocked(segment int) []*Config {
	var out []*Config
	for _, cfg := range r.configs {
		if cfg.Segment == segment {
			out = append(out, cloneConfig(cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func cloneConfig(c *Config) *Config {
	clone := *c
	return &clone
}
