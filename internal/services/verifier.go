package futurecash

import (
	"context"
	"fmt"
	"sync"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"go.uber.org/zap"
)

// VerifierFunc - адаптер функции к Verifier
type VerifierFunc func(ctx context.Context, callback model.Callback) error

func (f VerifierFunc) Verify(ctx context.Context, callback model.Callback) error {
	return f(ctx, callback)
}

// Реестр проверок подписи по имени провайдера.
// strict: провайдер без проверки отклоняется, иначе принимается с предупреждением.
type VerifierRegistry struct {
	mu        sync.RWMutex
	verifiers map[string]interf.Verifier
	strict    bool
	logger    *zap.Logger
}

func NewVerifierRegistry(logger *zap.Logger, strict bool) *VerifierRegistry {
	return &VerifierRegistry{
		verifiers: make(map[string]interf.Verifier),
		strict:    strict,
		logger:    logger,
	}
}

func (r *VerifierRegistry) Register(provider string, verifier interf.Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[provider] = verifier
}

func (r *VerifierRegistry) Verify(ctx context.Context, callback model.Callback) error {
	r.mu.RLock()
	verifier, ok := r.verifiers[callback.Provider]
	r.mu.RUnlock()

	if !ok {
		if r.strict {
			return fmt.Errorf("no verifier for provider %s: %w", callback.Provider, model.ErrInvalidCallback)
		}
		r.logger.Warn("Callback accepted without signature check",
			zap.String("provider", callback.Provider),
			zap.String("transaction_id", callback.TransactionID),
		)
		return nil
	}
	err := verifier.Verify(ctx, callback)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), model.ErrInvalidCallback)
	}
	return nil
}
