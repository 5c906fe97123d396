package statesync

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("statesync: evaluator not configured")

// WatchContext carries the inputs an expression evaluates against. State is
// the flattened field binding of a snapshot, Args holds caller-supplied
// values, and Now pins the evaluation time for deterministic runs.
type WatchContext struct {
	State map[string]any
	Now   *time.Time
	Args  map[string]any
}

func (ctx WatchContext) withDefaultNow() WatchContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx WatchContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx WatchContext) withDefaultMaps() WatchContext {
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

// Evaluator executes watch expressions against a context.
type Evaluator interface {
	Evaluate(ctx WatchContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledWatch, error)
}

// CompiledWatch represents a reusable expression program.
type CompiledWatch interface {
	Evaluate(ctx WatchContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// EvaluateExpression runs expression once against the current snapshot.
func (s *Store) EvaluateExpression(evaluator Evaluator, expression string) (any, error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if expression == "" {
		return nil, fmt.Errorf("statesync: expression must not be empty")
	}
	ctx := WatchContext{State: s.Get().Binding()}.withDefaultNow().withDefaultMaps()
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expression)
	duration := time.Since(start)
	err = wrapEvaluationError(evaluatorEngineName(evaluator), expression, err)
	s.logger.LogSync(SyncLogEvent{
		Op:       OpWatch,
		Detail:   expression,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Watch subscribes callback to changes in the value of expression. The
// expression is compiled once and re-evaluated against each snapshot; the
// callback fires only when its result changes. Evaluation failures are
// logged and treated as no change. The returned function removes the watch.
func (s *Store) Watch(evaluator Evaluator, expression string, callback func(any)) (func(), error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if expression == "" {
		return nil, fmt.Errorf("statesync: expression must not be empty")
	}
	compiled, err := evaluator.Compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(evaluatorEngineName(evaluator), expression, err)
	}
	engine := evaluatorEngineName(evaluator)
	selector := func(state State) any {
		value, evalErr := compiled.Evaluate(WatchContext{State: state.Binding()})
		if evalErr != nil {
			s.logger.LogSync(SyncLogEvent{
				Op:     OpWatch,
				Detail: expression,
				Err:    wrapEvaluationError(engine, expression, evalErr),
			})
			return nil
		}
		return value
	}
	return s.Subscribe(selector, func(selected any) {
		callback(selected)
	}, nil), nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*statesync.exprEvaluator":
		return "expr"
	case "*statesync.celEvaluator":
		return "cel"
	case "*statesync.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
