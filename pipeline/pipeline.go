package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jeffrom/pressroom/config"
)

// Registry collects rules at startup. Call Pipeline once registration is
// done; rules registered afterwards are not seen by existing pipelines.
type Registry struct {
	rules map[Stage][]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[Stage][]Rule)}
}

// Register appends rule to its stage.
func (r *Registry) Register(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("pipeline: transform name is required")
	}
	if rule.Apply == nil {
		return fmt.Errorf("pipeline: transform %q has no Apply func", rule.Name)
	}
	if rule.Stage != FilterTime && rule.Stage != OutputTime {
		return fmt.Errorf("pipeline: transform %q has invalid stage %s", rule.Name, rule.Stage)
	}
	for _, existing := range r.rules[rule.Stage] {
		if existing.Name == rule.Name {
			return &DuplicateTransformError{Name: rule.Name, Stage: rule.Stage}
		}
	}
	r.rules[rule.Stage] = append(r.rules[rule.Stage], rule)
	return nil
}

// MustRegister is Register for startup code, panicking on error.
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Pipeline snapshots the registered rules.
func (r *Registry) Pipeline(logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		stages: make(map[Stage][]Rule, len(r.rules)),
		log:    logger,
	}
	for stage, rules := range r.rules {
		p.stages[stage] = append([]Rule(nil), rules...)
	}
	return p
}

// Pipeline is an immutable, ordered set of rules. It is safe for concurrent
// use by any number of assets.
type Pipeline struct {
	stages map[Stage][]Rule
	log    zerolog.Logger
}

// Rules returns the rules registered at stage, in registration order.
func (p *Pipeline) Rules(stage Stage) []Rule {
	return append([]Rule(nil), p.stages[stage]...)
}

// Filter returns the FilterTime rule registered as name.
func (p *Pipeline) Filter(name string) (Rule, bool) {
	for _, rule := range p.stages[FilterTime] {
		if rule.Name == name {
			return rule, true
		}
	}
	return Rule{}, false
}

// ApplyFilterStage runs the enabled FilterTime rules matching a over
// content, in order.
func (p *Pipeline) ApplyFilterStage(plan *config.BuildPlan, rep *Report, a Asset, content string) string {
	return p.applyStage(FilterTime, plan, rep, a, content)
}

// ApplyOutputStage runs the enabled OutputTime rules matching a over
// content. It is the identity outside production mode.
func (p *Pipeline) ApplyOutputStage(plan *config.BuildPlan, rep *Report, a Asset, content string) string {
	if plan == nil || !plan.ProductionMode() {
		return content
	}
	return p.applyStage(OutputTime, plan, rep, a, content)
}

// ApplyFilter runs the single FilterTime rule name over content, as a
// template filter does. Disabled rules leave content unchanged.
func (p *Pipeline) ApplyFilter(plan *config.BuildPlan, rep *Report, a Asset, name, content string) (string, error) {
	rule, ok := p.Filter(name)
	if !ok {
		return content, fmt.Errorf("pipeline: no filter named %q", name)
	}
	if !rule.enabled(plan) {
		return content, nil
	}
	return p.apply(rule, rep, a, content), nil
}

func (p *Pipeline) applyStage(stage Stage, plan *config.BuildPlan, rep *Report, a Asset, content string) string {
	for _, rule := range p.stages[stage] {
		if !rule.matches(a) || !rule.enabled(plan) {
			continue
		}
		content = p.apply(rule, rep, a, content)
	}
	return content
}

// apply runs a single rule, returning content unchanged if it errors or
// panics.
func (p *Pipeline) apply(rule Rule, rep *Report, a Asset, content string) (res string) {
	defer func() {
		if r := recover(); r != nil {
			res = content
			p.fail(rule, rep, a.Path, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := rule.Apply(content)
	if err != nil {
		p.fail(rule, rep, a.Path, err)
		return content
	}
	return out
}

func (p *Pipeline) fail(rule Rule, rep *Report, path string, err error) {
	f := &TransformFailure{Path: path, Transform: rule.Name, Stage: rule.Stage, Err: err}
	p.log.Warn().
		Err(err).
		Str("path", path).
		Str("transform", rule.Name).
		Stringer("stage", rule.Stage).
		Msg("transform failed, passing content through unmodified")
	rep.AddFailure(f)
}
