package admission

import (
	"sync"

	"github.com/takeshishimada/Lockman-sub001/admission/application"
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
	"github.com/takeshishimada/Lockman-sub001/admission/infra"
)

// IDs das estratégias embutidas, como registradas por New.
const (
	SingleExecutionID    domain.StrategyID = "single-execution"
	PriorityBasedID      domain.StrategyID = "priority-based"
	ConcurrencyLimitedID domain.StrategyID = "concurrency-limited"
	GroupCoordinationID  domain.StrategyID = "group-coordination"
	CompositeID          domain.StrategyID = "composite"
	RateLimitID          domain.StrategyID = "rate-limit"
)

type config struct {
	stats     domain.StatsStore
	extras    []domain.Strategy
	rlOptions []infra.RateLimitOption
}

// Option configura a construção do runtime.
type Option func(*config)

// WithStats grava cada tentativa no store de estatística (best-effort).
func WithStats(stats domain.StatsStore) Option {
	return func(c *config) { c.stats = stats }
}

// WithStrategies registra estratégias adicionais além das embutidas.
func WithStrategies(strategies ...domain.Strategy) Option {
	return func(c *config) { c.extras = append(c.extras, strategies...) }
}

// WithRateLimitOptions configura o store de token bucket da estratégia
// rate-limit (TTL de inatividade, intervalo de limpeza).
func WithRateLimitOptions(opts ...infra.RateLimitOption) Option {
	return func(c *config) { c.rlOptions = append(c.rlOptions, opts...) }
}

// New constrói um Manager com as seis estratégias embutidas registradas.
//
// O runtime é um valor explícito, não estado global: construa quantos quiser
// (um por teste, por exemplo) e injete onde precisar. Default existe apenas
// como conveniência.
func New(opts ...Option) (*application.Manager, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	reg := application.NewRegistry()
	builtin := []domain.Strategy{
		infra.NewSingleExecution(),
		infra.NewPriorityBased(),
		infra.NewConcurrencyLimited(),
		infra.NewGroupCoordination(),
		infra.NewComposite(),
		infra.NewRateLimit(c.rlOptions...),
	}
	for _, s := range append(builtin, c.extras...) {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}

	var mopts []application.ManagerOption
	if c.stats != nil {
		mopts = append(mopts, application.WithStats(c.stats))
	}
	return application.NewManager(reg, mopts...), nil
}

var (
	defaultMu      sync.Mutex
	defaultManager *application.Manager
)

// Default retorna a instância padrão, construída sob demanda com New().
func Default() *application.Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager == nil {
		m, err := New()
		if err != nil {
			// New só falha com registro duplicado, impossível com as
			// estratégias embutidas.
			panic(err)
		}
		defaultManager = m
	}
	return defaultManager
}

// SetDefault substitui a instância padrão (injeção em testes do chamador).
func SetDefault(m *application.Manager) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultManager = m
}
