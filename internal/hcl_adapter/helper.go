package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder populates omitted optional fields with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

// evalExpr evaluates an optional expression without variables. Omitted
// expressions yield cty.NilVal.
func evalExpr(ctx context.Context, expr hcl.Expression, attrName string) (cty.Value, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return cty.NilVal, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("invalid value for '%s': %w", attrName, diags)
	}
	return v, nil
}

// bodyToObject evaluates every attribute of a body into an object value.
func bodyToObject(body hcl.Body) (cty.Value, error) {
	if body == nil {
		return cty.EmptyObjectVal, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, diags
		}
		out[name] = v
	}
	return cty.ObjectVal(out), nil
}

func flagOrDefault(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}
