package application

import (
	"fmt"
	"sync"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// Registry mapeia StrategyID → estratégia, com semântica de registro único:
// registrar um id já ocupado falha com ErrAlreadyRegistered.
//
// Seguro para uso concorrente.
type Registry struct {
	mu   sync.RWMutex
	data map[domain.StrategyID]domain.Strategy
}

func NewRegistry() *Registry {
	return &Registry{data: make(map[domain.StrategyID]domain.Strategy)}
}

// Register adiciona a estratégia sob o id dela.
func (r *Registry) Register(s domain.Strategy) error {
	if s == nil || s.ID() == "" {
		return fmt.Errorf("admission: invalid strategy")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[s.ID()]; exists {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyRegistered, s.ID())
	}
	r.data[s.ID()] = s
	return nil
}

// Resolve busca a estratégia e confere que ela aceita o kind de payload
// pedido. Falha com ErrNotRegistered ou ErrTypeMismatch.
func (r *Registry) Resolve(id domain.StrategyID, payloadKind string) (domain.Strategy, error) {
	r.mu.RLock()
	s, ok := r.data[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotRegistered, id)
	}
	if s.PayloadKind() != payloadKind {
		return nil, fmt.Errorf("%w: strategy %s expects %q, got %q",
			domain.ErrTypeMismatch, id, s.PayloadKind(), payloadKind)
	}
	return s, nil
}

// All retorna um snapshot das estratégias registradas.
func (r *Registry) All() []domain.Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Strategy, 0, len(r.data))
	for _, s := range r.data {
		out = append(out, s)
	}
	return out
}
