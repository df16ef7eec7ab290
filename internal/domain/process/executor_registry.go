package process

import (
	"sync"

	"github.com/vigiajus/vigiajus/pkg/errors"
)

// ExecutorRegistry routes tribunal codes to their QueryExecutor.  A
// default executor, when set, serves every code without a dedicated one.
type ExecutorRegistry struct {
	mu        sync.RWMutex
	executors map[string]QueryExecutor
	fallback  QueryExecutor
}

// NewExecutorRegistry returns an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[string]QueryExecutor)}
}

// Register binds an executor to a tribunal code, replacing any previous
// binding.
func (r *ExecutorRegistry) Register(tribunalCode string, exec QueryExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[tribunalCode] = exec
}

// SetFallback installs the executor used for codes without a dedicated one.
func (r *ExecutorRegistry) SetFallback(exec QueryExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = exec
}

// Get resolves the executor for a tribunal code.
func (r *ExecutorRegistry) Get(tribunalCode string) (QueryExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if exec, ok := r.executors[tribunalCode]; ok {
		return exec, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, errors.Newf(errors.ErrCodeNoExecutor,
		"nenhum executor de consulta para o tribunal %s", tribunalCode)
}

// Codes returns every tribunal code with a dedicated executor.
func (r *ExecutorRegistry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.executors))
	for code := range r.executors {
		out = append(out, code)
	}
	return out
}
