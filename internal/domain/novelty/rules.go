package novelty

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/common"
	"github.com/vigiajus/vigiajus/pkg/types/process"
)

// KeywordRule is one ordered keyword matcher.  Matching is a
// case-insensitive substring test against the movement title and
// description; the first rule that matches wins.
type KeywordRule struct {
	Match    string          `yaml:"match"`
	Priority common.Priority `yaml:"priority"`
}

// rulesFile is the YAML layout of the priority-rule file.
type rulesFile struct {
	Types    map[string]common.Priority `yaml:"types"`
	Keywords []KeywordRule              `yaml:"keywords"`
}

// RuleSet resolves movement priorities.  Safe for concurrent use; Reload
// swaps the tables atomically under the write lock.
type RuleSet struct {
	mu       sync.RWMutex
	types    map[string]common.Priority
	keywords []KeywordRule
	logger   logging.Logger
}

// DefaultKeywordRules is the built-in ordered keyword table.  Sentenças
// outrank everything; routine filing activity ranks low.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Match: "sentença", Priority: common.PriorityUrgent},
		{Match: "decisão", Priority: common.PriorityHigh},
		{Match: "audiência", Priority: common.PriorityHigh},
		{Match: "intimação", Priority: common.PriorityHigh},
		{Match: "recurso", Priority: common.PriorityHigh},
		{Match: "citação", Priority: common.PriorityMedium},
		{Match: "despacho", Priority: common.PriorityMedium},
		{Match: "conclusão", Priority: common.PriorityMedium},
		{Match: "mandado", Priority: common.PriorityMedium},
		{Match: "juntada", Priority: common.PriorityLow},
		{Match: "certidão", Priority: common.PriorityLow},
	}
}

// NewRuleSet builds a rule set with the built-in defaults.
func NewRuleSet(logger logging.Logger) *RuleSet {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RuleSet{
		types:    map[string]common.Priority{},
		keywords: DefaultKeywordRules(),
		logger:   logger,
	}
}

// LoadFile replaces the tables with the contents of the YAML file at path.
func (r *RuleSet) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeRulesInvalid, "falha ao ler arquivo de regras")
	}
	return r.Load(data)
}

// Load replaces the tables with parsed YAML content.  An empty keyword
// list falls back to the defaults; invalid priorities reject the whole
// file so a half-applied rule set never goes live.
func (r *RuleSet) Load(data []byte) error {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, errors.ErrCodeRulesInvalid, "regras de prioridade malformadas")
	}

	for t, p := range f.Types {
		if !p.Valid() {
			return errors.Newf(errors.ErrCodeRulesInvalid, "prioridade inválida %q para o tipo %q", p, t)
		}
	}
	for _, k := range f.Keywords {
		if k.Match == "" {
			return errors.New(errors.ErrCodeRulesInvalid, "regra de palavra-chave sem padrão")
		}
		if !k.Priority.Valid() {
			return errors.Newf(errors.ErrCodeRulesInvalid, "prioridade inválida %q para a palavra-chave %q", k.Priority, k.Match)
		}
	}

	types := make(map[string]common.Priority, len(f.Types))
	for t, p := range f.Types {
		types[strings.ToLower(t)] = p
	}
	keywords := f.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywordRules()
	}
	lowered := make([]KeywordRule, len(keywords))
	for i, k := range keywords {
		lowered[i] = KeywordRule{Match: strings.ToLower(k.Match), Priority: k.Priority}
	}

	r.mu.Lock()
	r.types = types
	r.keywords = lowered
	r.mu.Unlock()
	return nil
}

// Classify resolves the priority of a movement and reports which keywords
// matched.  Resolution order: declared type table, first keyword match,
// then medium when attachments are present, otherwise low.
func (r *RuleSet) Classify(m process.Movement) (common.Priority, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m.Type != "" {
		if p, ok := r.types[strings.ToLower(m.Type)]; ok {
			return p, nil
		}
	}

	text := strings.ToLower(m.Title + " " + m.Description)
	var matched []string
	var first common.Priority
	for _, k := range r.keywords {
		if strings.Contains(text, k.Match) {
			if first == "" {
				first = k.Priority
			}
			matched = append(matched, k.Match)
		}
	}
	if first != "" {
		return first, matched
	}

	if m.Attachments > 0 {
		return common.PriorityMedium, nil
	}
	return common.PriorityLow, nil
}

// Watch reloads the rule file whenever it changes on disk, until ctx is
// cancelled.  Parse failures keep the previous rules in effect.  Watching
// the directory rather than the file survives editors that rename on save.
func (r *RuleSet) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "falha ao criar watcher de regras")
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "falha ao observar diretório de regras")
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := r.LoadFile(path); err != nil {
					r.logger.Warn("priority rules reload failed, keeping previous rules",
						logging.String("path", path), logging.Err(err))
					continue
				}
				r.logger.Info("priority rules reloaded", logging.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("rules watcher error", logging.Err(err))
			}
		}
	}()
	return nil
}
