package lang

import (
	"reflect"
)

// Conditionals returns the comparison and logic helpers: eq, neq, gt, gte,
// lt, lte, and, or, and not.
//
// Used as a block, a conditional renders its body when the condition holds
// and its inverse otherwise. Used inline, it yields the boolean result.
func Conditionals() map[string]Helper {
	return map[string]Helper{
		"eq":  compare(func(c int) bool { return c == 0 }, true),
		"neq": compare(func(c int) bool { return c != 0 }, true),
		"gt":  compare(func(c int) bool { return c > 0 }, false),
		"gte": compare(func(c int) bool { return c >= 0 }, false),
		"lt":  compare(func(c int) bool { return c < 0 }, false),
		"lte": compare(func(c int) bool { return c <= 0 }, false),
		"and": HelperFunc(andHelper),
		"or":  HelperFunc(orHelper),
		"not": HelperFunc(notHelper),
	}
}

// compare builds a binary comparison helper. Equality comparisons accept
// any operands; ordering comparisons of operands that are neither both
// numbers nor both strings are false.
func compare(test func(int) bool, equality bool) Helper {
	return HelperFunc(func(_ any, opts *Options) (any, error) {
		if err := argCount(opts, 2); err != nil {
			return nil, err
		}

		c, ok := compareValues(opts.Param(0), opts.Param(1))

		switch {
		case ok:
			return outcome(test(c), opts)
		case equality:
			// Incomparable values are unequal.
			return outcome(test(1), opts)
		default:
			return outcome(false, opts)
		}
	})
}

// outcome renders the body or inverse of a block by cond, or returns cond.
func outcome(cond bool, opts *Options) (any, error) {
	if opts.IsBlock() {
		if cond {
			return opts.Fn()
		}

		return opts.Inverse()
	}

	return cond, nil
}

// compareValues orders a and b. Numbers compare numerically regardless of
// type, strings lexically, and other values by equality only (0 when equal).
func compareValues(a, b any) (int, bool) {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	if x, ok := asString(a); ok {
		if y, ok := asString(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}

		return 0, false
	}

	if reflect.DeepEqual(a, b) {
		return 0, true
	}

	return 0, false
}

func asString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case SafeString:
		return string(v), true
	default:
		return "", false
	}
}

func andHelper(_ any, opts *Options) (any, error) {
	if len(opts.Params) == 0 {
		return nil, argCount(opts, 2)
	}

	cond := true
	for _, p := range opts.Params {
		cond = cond && IsTruthy(p)
	}

	return outcome(cond, opts)
}

func orHelper(_ any, opts *Options) (any, error) {
	if len(opts.Params) == 0 {
		return nil, argCount(opts, 2)
	}

	cond := false
	for _, p := range opts.Params {
		cond = cond || IsTruthy(p)
	}

	return outcome(cond, opts)
}

func notHelper(value any, opts *Options) (any, error) {
	if err := argCount(opts, 1); err != nil {
		return nil, err
	}

	return outcome(!IsTruthy(value), opts)
}
