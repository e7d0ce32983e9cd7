package health

import (
	"context"
	"errors"

	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/provider/live"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// StoreChecker probes the astronaut store with a list query.
func StoreChecker(st store.Store) Checker {
	return Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			if st == nil {
				return errors.New("store not configured")
			}
			_, err := st.List(ctx)
			return err
		},
	}
}

// LLMChecker reports whether a text model provider is configured. The check
// does not call the provider; a missing provider is the only failure mode
// detectable without spending tokens.
func LLMChecker(p llm.Provider) Checker {
	return Checker{
		Name: "llm",
		Check: func(ctx context.Context) error {
			if p == nil {
				return errors.New("llm provider not configured")
			}
			return nil
		},
	}
}

// LiveChecker reports whether the voice session provider is configured.
func LiveChecker(p live.Provider) Checker {
	return Checker{
		Name: "live",
		Check: func(ctx context.Context) error {
			if p == nil {
				return errors.New("live provider not configured")
			}
			return nil
		},
	}
}
