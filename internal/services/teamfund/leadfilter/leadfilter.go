// Package leadfilter translates AIP-160 filter expressions over leads into
// SQL conditions.
//
// Supported fields are status, category, company_name, location, email and
// created_at. created_at compares against timestamp("RFC3339") values and is
// matched against the millisecond column.
package leadfilter

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Condition is a SQL WHERE fragment with positional parameters.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition filters nothing.
func (c Condition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

var columns = map[string]string{
	"status":       "status",
	"category":     "category",
	"company_name": "company_name",
	"location":     "location",
	"email":        "email",
	"created_at":   "created_at",
}

var comparisons = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

var logical = map[string]string{
	"_&&_": "AND", "AND": "AND",
	"_||_": "OR", "OR": "OR",
}

// Declarations returns the identifiers a lead filter may reference.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("category", filtering.TypeString),
		filtering.DeclareIdent("company_name", filtering.TypeString),
		filtering.DeclareIdent("location", filtering.TypeString),
		filtering.DeclareIdent("email", filtering.TypeString),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
	)
}

// Parse translates filter into a SQL condition. A blank filter yields an
// empty condition.
func Parse(filter string) (Condition, error) {
	if strings.TrimSpace(filter) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return Condition{}, invalid(err)
	}
	cond, err := translate(parsed.CheckedExpr.GetExpr())
	if err != nil {
		return Condition{}, invalid(err)
	}
	return cond, nil
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeLeadInvalidFilter, "Invalid filter: "+err.Error(), err)
}

func translate(e *expr.Expr) (Condition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return Condition{}, fmt.Errorf("unsupported expression %T", e.GetExprKind())
	}
	if op, ok := logical[call.GetFunction()]; ok {
		return translateLogical(op, call.GetArgs())
	}
	if op, ok := comparisons[call.GetFunction()]; ok {
		return translateComparison(op, call.GetArgs())
	}
	return Condition{}, fmt.Errorf("unsupported function %s", call.GetFunction())
}

func translateLogical(op string, args []*expr.Expr) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translate(args[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return Condition{}, err
	}
	params := make([]any, 0, len(left.Params)+len(right.Params))
	params = append(params, left.Params...)
	params = append(params, right.Params...)
	return Condition{
		Clause: "(" + left.Clause + " " + op + " " + right.Clause + ")",
		Params: params,
	}, nil
}

func translateComparison(op string, args []*expr.Expr) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return Condition{}, fmt.Errorf("left side of %s must be a field", op)
	}
	column, ok := columns[ident.GetName()]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field %s", ident.GetName())
	}

	var (
		value any
		err   error
	)
	if column == "created_at" {
		value, err = timestampMillis(args[1])
	} else {
		value, err = stringValue(args[1])
		if err == nil && column == "status" {
			_, err = domain.ParseLeadStatus(value.(string))
		}
	}
	if err != nil {
		return Condition{}, err
	}
	return Condition{Clause: column + " " + op + " ?", Params: []any{value}}, nil
}

func stringValue(e *expr.Expr) (string, error) {
	constant := e.GetConstExpr()
	if constant == nil {
		return "", fmt.Errorf("expected a string literal")
	}
	value, ok := constant.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("expected a string literal, got %T", constant.GetConstantKind())
	}
	return value.StringValue, nil
}

func timestampMillis(e *expr.Expr) (int64, error) {
	call := e.GetCallExpr()
	if call == nil || call.GetFunction() != "timestamp" || len(call.GetArgs()) != 1 {
		return 0, fmt.Errorf("created_at must compare against timestamp(\"...\")")
	}
	raw, err := stringValue(call.GetArgs()[0])
	if err != nil {
		return 0, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", raw)
	}
	return parsed.UTC().UnixMilli(), nil
}
