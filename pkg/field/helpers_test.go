package field_test

import "github.com/binschema/binschema/pkg/lazyeval"

func lazyEvalLiteral(v any) lazyeval.Expr { return lazyeval.Literal{Value: v} }
