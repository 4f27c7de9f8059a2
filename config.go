package controls

import (
	"log/slog"

	"github.com/goliatone/go-controls/pkg/activity"
)

// Option configures a Manager or a Stack.
type Option func(*config)

type config struct {
	types           *TypeRegistry
	groups          GroupRegistry
	conditions      ConditionsEngine
	tags            TagEngine
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          *slog.Logger
	evalLogger      EvaluatorLogger
	schemaGenerator SchemaGenerator
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
	emitter         *activity.Emitter

	// deferred collects option failures reported once the logger is known.
	deferred []error
}

// applyOptions resolves collaborators left unset to their defaults. The
// evaluator is resolved first so the default conditions and tag engines share
// it.
func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.types == nil {
		cfg.types = DefaultTypeRegistry()
	}
	if cfg.groups == nil {
		cfg.groups = NewGroupRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	for _, err := range cfg.deferred {
		cfg.logger.Warn("controls: option ignored", slog.Any("error", err))
	}
	if cfg.evalLogger == nil {
		cfg.evalLogger = noopEvaluatorLogger{}
	}
	if cfg.evaluator == nil {
		cfg.evaluator = defaultEvaluator(cfg.programCache, cfg.functions)
	}
	if cfg.conditions == nil {
		cfg.conditions = NewConditionsEngine(cfg.evaluator, cfg.evalLogger)
	}
	if cfg.tags == nil {
		cfg.tags = NewExpressionTagEngine(cfg.evaluator, cfg.evalLogger)
	}
	if cfg.schemaGenerator == nil {
		cfg.schemaGenerator = DefaultSchemaGenerator()
	}
	activityCfg := activity.Config{Enabled: len(cfg.activityHooks) > 0}
	if cfg.activityConfig != nil {
		activityCfg = *cfg.activityConfig
	}
	cfg.emitter = activity.NewEmitter(cfg.activityHooks, activityCfg)
	return cfg
}

// WithTypeRegistry replaces the built-in control types.
func WithTypeRegistry(registry *TypeRegistry) Option {
	return func(cfg *config) {
		cfg.types = registry
	}
}

// WithGroupRegistry sets the registry AddGroupControl resolves names against.
func WithGroupRegistry(registry GroupRegistry) Option {
	return func(cfg *config) {
		cfg.groups = registry
	}
}

// WithConditionsEngine overrides how "conditions" declarations are checked.
func WithConditionsEngine(engine ConditionsEngine) Option {
	return func(cfg *config) {
		cfg.conditions = engine
	}
}

// WithTagEngine overrides how dynamic tag text is parsed.
func WithTagEngine(engine TagEngine) Option {
	return func(cfg *config) {
		cfg.tags = engine
	}
}

// WithEvaluator selects the expression engine used by the default conditions
// and tag engines.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = evaluator
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *config) {
		cfg.schemaGenerator = generator
	}
}

// WithActivityHooks attaches activity hooks. Emission is enabled whenever
// hooks are present unless WithActivityConfig says otherwise. Nil hooks are
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig sets the emitter configuration.
func WithActivityConfig(activityCfg activity.Config) Option {
	return func(cfg *config) {
		cfg.activityConfig = &activityCfg
	}
}

// AddOption tunes a single AddControl call.
type AddOption func(*addOptions)

type addOptions struct {
	overwrite bool
	position  *Position
	index     int
}

func applyAddOptions(opts []AddOption) addOptions {
	o := addOptions{index: -1}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Overwrite turns the add of an existing key into an update.
func Overwrite() AddOption {
	return func(o *addOptions) {
		o.overwrite = true
	}
}

// AtPosition inserts the control relative to an existing one.
func AtPosition(pos Position) AddOption {
	return func(o *addOptions) {
		o.position = &pos
	}
}

// AtIndex inserts the control at a raw store index.
func AtIndex(index int) AddOption {
	return func(o *addOptions) {
		o.index = index
	}
}

// UpdateOption tunes a single UpdateControl call.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	recursive    bool
	recursiveSet bool
}

func applyUpdateOptions(opts []UpdateOption) updateOptions {
	o := updateOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Recursive selects a deep merge of the patch. Passing false explicitly also
// stops a section update from reaching the controls of that section.
func Recursive(on bool) UpdateOption {
	return func(o *updateOptions) {
		o.recursive = on
		o.recursiveSet = true
	}
}

// propagates reports whether a section update reaches its controls.
func (o updateOptions) propagates() bool {
	return !o.recursiveSet || o.recursive
}
