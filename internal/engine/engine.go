package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/realize"
	"github.com/roach88/canon/internal/rules"
)

// Engine is the sole execution gateway for canon declarations.
//
// Validate runs every registered rule and aggregates a Verdict; Realize
// re-validates (unless bypass is doubly authorized) and drives the
// realizer registry. No artifact is ever produced from a declaration
// that has not passed the canon rules, except through the explicit
// two-gate bypass, and then only with provenance that says so.
//
// Both operations are synchronous request/response calls with no
// suspension points; the engine is meant to be invoked from a UI event
// loop or a CLI. The rule set is fixed at construction. The verdict
// cache and the realizer registry are the only shared mutable state;
// both are guarded for callers that share one engine across goroutines,
// with reads expected to dominate registration by a wide margin.
type Engine struct {
	rules        []rules.Rule
	canonVersion string
	strict       bool
	allowBypass  bool
	registry     *realize.Registry
	archive      Archive
	now          func() time.Time

	mu    sync.RWMutex
	cache map[string]CachedVerdict
}

// CachedVerdict is one verdict cache entry.
type CachedVerdict struct {
	Verdict     canon.Verdict
	ValidatedAt time.Time
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithRules replaces the built-in rule set. Order is evaluation order.
func WithRules(rs []rules.Rule) Option {
	return func(e *Engine) {
		rulesCopy := make([]rules.Rule, len(rs))
		copy(rulesCopy, rs)
		e.rules = rulesCopy
	}
}

// WithCanonVersion sets the canon version string cited in verdicts.
func WithCanonVersion(v string) Option {
	return func(e *Engine) { e.canonVersion = v }
}

// WithLenient makes only FATAL findings block a verdict. The strict
// default also blocks on ERROR; lenient mode is a transitional
// compatibility knob, not a recommended configuration.
func WithLenient() Option {
	return func(e *Engine) { e.strict = false }
}

// WithBypassAllowed authorizes the engine, at construction, to honor
// per-call skip-validation requests. Without this option every
// SkipValidation call fails with a BypassError.
func WithBypassAllowed() Option {
	return func(e *Engine) { e.allowBypass = true }
}

// WithRegistry supplies a pre-populated realizer registry.
func WithRegistry(g *realize.Registry) Option {
	return func(e *Engine) { e.registry = g }
}

// WithArchive attaches a verdict/run archive. Recording is best-effort:
// archive failures are logged, never surfaced to the caller.
func WithArchive(a Archive) Option {
	return func(e *Engine) { e.archive = a }
}

// WithClock overrides the wall clock used for validation timestamps.
// Used by tests and the scenario harness for deterministic provenance.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine with the built-in rule set, strict verdicts, no
// bypass authorization, and an empty realizer registry.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:        rules.DefaultRules(),
		canonVersion: canon.CanonVersion,
		strict:       true,
		registry:     realize.NewRegistry(),
		now:          time.Now,
		cache:        make(map[string]CachedVerdict),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterRealizer adds a realizer to the engine's registry.
// Later registrations for the same kind overwrite earlier ones.
func (e *Engine) RegisterRealizer(r realize.Realizer) {
	e.registry.Register(r)
}

// Registry returns the engine's realizer registry.
func (e *Engine) Registry() *realize.Registry {
	return e.registry
}

// Rules returns the engine's rule set in evaluation order.
func (e *Engine) Rules() []rules.Rule {
	return e.rules
}

// Strict reports whether ERROR findings block verdicts.
func (e *Engine) Strict() bool {
	return e.strict
}

// Validate runs every registered rule against the declaration and
// aggregates a Verdict.
//
// Rules are failure-isolated: a panicking rule becomes a synthetic FATAL
// finding with rule id "<id>-EXCEPTION" instead of aborting validation.
// Findings are concatenated in rule registration order, so validation is
// deterministic for a fixed rule set and declaration.
//
// The verdict is cached keyed by the declaration signature. The cache
// exists for reproducibility lookups only; Validate always recomputes
// and overwrites, and two calls on structurally identical declarations
// yield findings-equal verdicts.
func (e *Engine) Validate(d *canon.Declaration) canon.Verdict {
	var findings []canon.Finding
	for _, rule := range e.rules {
		findings = append(findings, e.checkRule(rule, d)...)
	}

	verdict := canon.Verdict{
		OK:               e.computeOK(findings),
		Findings:         findings,
		DeclarationTitle: d.Title,
		CanonVersion:     e.canonVersion,
	}

	sig, err := canon.Signature(d)
	if err != nil {
		// Unsignable declarations (non-finite params) are still
		// validated; they just cannot be cached or realized.
		slog.Warn("declaration signature failed; verdict not cached",
			"declaration", d.Title,
			"error", err,
		)
		return verdict
	}

	validatedAt := e.now()
	e.mu.Lock()
	e.cache[sig] = CachedVerdict{Verdict: verdict, ValidatedAt: validatedAt}
	e.mu.Unlock()

	e.recordVerdict(sig, verdict, validatedAt)

	slog.Debug("declaration validated",
		"declaration", d.Title,
		"signature", sig,
		"ok", verdict.OK,
		"findings", len(verdict.Findings),
	)

	return verdict
}

// checkRule evaluates one rule with panic isolation. A buggy rule must
// not swallow validation of the whole declaration, and must not be
// mistaken for a clean pass.
func (e *Engine) checkRule(rule rules.Rule, d *canon.Declaration) (findings []canon.Finding) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("canon rule panicked",
				"rule_id", rule.ID(),
				"declaration", d.Title,
				"panic", r,
			)
			findings = []canon.Finding{{
				Severity: canon.SeverityFatal,
				RuleID:   rule.ID() + "-EXCEPTION",
				Message:  fmt.Sprintf("rule %s (%s) failed during evaluation: %v", rule.ID(), rule.Title(), r),
				Articles: rule.Articles(),
			}}
		}
	}()
	return rule.Check(d)
}

// computeOK derives the verdict flag from the findings: FATAL always
// blocks; ERROR blocks in strict mode.
func (e *Engine) computeOK(findings []canon.Finding) bool {
	for _, f := range findings {
		if f.Severity == canon.SeverityFatal {
			return false
		}
		if e.strict && f.Severity == canon.SeverityError {
			return false
		}
	}
	return true
}

// CachedVerdict returns the cache entry for a declaration signature.
func (e *Engine) CachedVerdict(sig string) (CachedVerdict, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.cache[sig]
	return entry, ok
}

// CacheSize returns the number of cached verdicts. Used in tests.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
