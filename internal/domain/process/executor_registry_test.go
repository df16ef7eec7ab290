package process

import (
	"context"
	"testing"

	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/pkg/errors"
	"github.com/vigiajus/vigiajus/pkg/types/process"
)

type stubExecutor struct{ name string }

func (e *stubExecutor) QueryProcess(context.Context, *cnj.ProcessNumber) (*process.ProcessQueryResult, error) {
	return &process.ProcessQueryResult{Status: process.QuerySuccess}, nil
}

func TestExecutorRegistryLookup(t *testing.T) {
	r := NewExecutorRegistry()
	tjsp := &stubExecutor{name: "tjsp"}
	r.Register("8.26", tjsp)

	got, err := r.Get("8.26")
	if err != nil {
		t.Fatal(err)
	}
	if got != tjsp {
		t.Error("wrong executor returned")
	}

	_, err = r.Get("8.19")
	if errors.GetCode(err) != errors.ErrCodeNoExecutor {
		t.Errorf("err = %v", err)
	}
}

func TestExecutorRegistryFallback(t *testing.T) {
	r := NewExecutorRegistry()
	dedicated := &stubExecutor{name: "tjsp"}
	fallback := &stubExecutor{name: "generic"}
	r.Register("8.26", dedicated)
	r.SetFallback(fallback)

	if got, _ := r.Get("8.26"); got != dedicated {
		t.Error("dedicated executor bypassed")
	}
	if got, _ := r.Get("8.19"); got != fallback {
		t.Error("fallback not used")
	}
}

func TestExecutorRegistryCodes(t *testing.T) {
	r := NewExecutorRegistry()
	r.Register("8.26", &stubExecutor{})
	r.Register("4.03", &stubExecutor{})
	r.SetFallback(&stubExecutor{})

	codes := r.Codes()
	if len(codes) != 2 {
		t.Errorf("codes = %v", codes)
	}
}
