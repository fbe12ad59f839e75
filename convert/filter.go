package convert

import (
	"fmt"

	"github.com/knetic/govaluate"

	"bmp24/bmp"
)

// Filter selects images by an expression over their dimensions. Parameters:
// width, height, pixels, portrait, landscape. Functions: stride(w) and
// datasize(w, h), the stored row and pixel data sizes of a 24-bit bitmap.
type Filter struct {
	expr *govaluate.EvaluableExpression
}

func filterFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"stride": func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("stride expects 1 argument (width)")
			}
			width, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("stride: width must be numeric")
			}
			return float64(bmp.Stride(int(width))), nil
		},
		"datasize": func(args ...any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("datasize expects 2 arguments (width, height)")
			}
			width, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("datasize: width must be numeric")
			}
			height, ok := args[1].(float64)
			if !ok {
				return nil, fmt.Errorf("datasize: height must be numeric")
			}
			return float64(bmp.Stride(int(width)) * int(height)), nil
		},
	}
}

// NewFilter compiles expr. An empty expression yields a nil Filter, which
// matches everything.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, filterFunctions())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	return &Filter{expr: e}, nil
}

func (f *Filter) Match(width, height int) (bool, error) {
	if f == nil {
		return true, nil
	}
	res, err := f.expr.Evaluate(map[string]any{
		"width":     float64(width),
		"height":    float64(height),
		"pixels":    float64(width * height),
		"portrait":  height > width,
		"landscape": width >= height,
	})
	if err != nil {
		return false, fmt.Errorf("could not evaluate filter %q: %w", f.expr.String(), err)
	}
	match, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q is not a condition: got %v", f.expr.String(), res)
	}
	return match, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr.String()
}
