package filter

import (
	"maps"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/s0up4200/hashsharing/hashapi"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	custom     map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if cache, err := lru.New[string, CompiledFilter](size); err == nil {
			c.cache = cache
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
		maps.Copy(c.customFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
		customFuncs: make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	customFuncs map[string]any
	cache       *lru.Cache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Record fields are bound at run time, so they are allowed to be undefined here
	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		custom:     c.customFuncs,
	}

	if c.cache != nil {
		c.cache.Add(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Evaluate evaluates the filter against an update. Evaluation errors count as
// no match.
func (f *exprFilter) Evaluate(update hashapi.EntryUpdate) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(update, f.custom))
	if err != nil {
		return false
	}
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static environment used during compilation.
// Record helpers are declared with their real signatures so calls type-check.
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	addUpdateHelpers(funcs, hashapi.EntryUpdate{})
	return funcs
}

func addHelperFunctions(env map[string]any) {
	// contains, startsWith and endsWith are operators in expr, so the
	// case-insensitive forms get their own names
	env["containsFold"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefixFold"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffixFold"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

func addUpdateHelpers(env map[string]any, update hashapi.EntryUpdate) {
	fingerprints := make(map[string]string, len(update.Fingerprints))
	for alg, value := range update.Fingerprints {
		fingerprints[strings.ToLower(alg)] = value
	}
	classification := update.ClassificationOrEmpty()

	env["hasFingerprint"] = func(alg string) bool {
		_, ok := fingerprints[strings.ToLower(alg)]
		return ok
	}
	env["fingerprint"] = func(alg string) string {
		return fingerprints[strings.ToLower(alg)]
	}
	env["classifiedAs"] = func(c string) bool {
		return update.Classification != nil && strings.EqualFold(classification, c)
	}
	env["isImage"] = func() bool {
		return update.EntryType == hashapi.EntryTypeImage
	}
	env["isVideo"] = func() bool {
		return update.EntryType == hashapi.EntryTypeVideo
	}
}

// createRuntimeEnvironment binds one update's fields and helpers
func createRuntimeEnvironment(update hashapi.EntryUpdate, custom map[string]any) map[string]any {
	env := make(map[string]any, 24+len(custom))
	addHelperFunctions(env)
	addUpdateHelpers(env, update)
	maps.Copy(env, custom)

	algorithms := slices.Sorted(maps.Keys(update.Fingerprints))

	env["Update"] = update
	env["ID"] = update.ID
	env["MemberID"] = update.MemberID
	env["EntryType"] = update.EntryType.String()
	env["Deleted"] = update.Deleted
	env["Classification"] = update.ClassificationOrEmpty()
	env["HasClassification"] = update.Classification != nil
	env["Fingerprints"] = update.Fingerprints
	env["Algorithms"] = algorithms

	return env
}
