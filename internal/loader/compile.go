package loader

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/canon/internal/canon"
)

// CompileDeclaration parses a CUE value into a Declaration.
// Uses the CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the declaration struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`declaration: { title: "..." }`)
//	decl, err := CompileDeclaration(v.LookupPath(cue.ParsePath("declaration")))
func CompileDeclaration(v cue.Value) (*canon.Declaration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &canon.Declaration{}

	// Parse title (required)
	titleVal := v.LookupPath(cue.ParsePath("title"))
	if !titleVal.Exists() {
		return nil, &CompileError{
			Field:   "title",
			Message: "title is required",
			Pos:     v.Pos(),
		}
	}
	title, err := titleVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	decl.Title = title

	// Parse epsilon (optional, declaration-wide tolerance)
	epsVal := v.LookupPath(cue.ParsePath("epsilon"))
	if epsVal.Exists() {
		eps, err := epsVal.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		decl.Epsilon = &eps
	}

	decl.Forms, err = parseForms(v)
	if err != nil {
		return nil, err
	}
	if len(decl.Forms) == 0 {
		return nil, &CompileError{
			Field:   "form",
			Message: "at least one form is required",
			Pos:     v.Pos(),
		}
	}

	decl.Relations, err = parseRelations(v)
	if err != nil {
		return nil, err
	}

	decl.Traces, err = parseTraces(v)
	if err != nil {
		return nil, err
	}

	decl.Constraints, err = parseConstraints(v)
	if err != nil {
		return nil, err
	}

	decl.Tests, err = parseTests(v)
	if err != nil {
		return nil, err
	}

	metaVal := v.LookupPath(cue.ParsePath("metadata"))
	if metaVal.Exists() {
		iter, err := metaVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		meta := make(map[string]string)
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			meta[iter.Label()] = s
		}
		decl.Metadata = meta
	}

	return decl, nil
}

// parseForms extracts form definitions, keyed by id in source order.
func parseForms(v cue.Value) ([]canon.Form, error) {
	var forms []canon.Form

	formVal := v.LookupPath(cue.ParsePath("form"))
	if !formVal.Exists() {
		return forms, nil
	}

	iter, err := formVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		form, err := parseForm(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}

	return forms, nil
}

func parseForm(id string, v cue.Value) (canon.Form, error) {
	form := canon.Form{ID: id}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return form, &CompileError{
			Field:   fmt.Sprintf("form.%s.kind", id),
			Message: "form kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return form, formatCUEError(err)
	}
	form.Kind = kind

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		params, err := decodeObject(paramsVal)
		if err != nil {
			return form, err
		}
		form.Params = params
	}

	meaningVal := v.LookupPath(cue.ParsePath("meaning"))
	if meaningVal.Exists() {
		// Meaning tags may be a single string or a list of strings.
		if s, err := meaningVal.String(); err == nil {
			form.Meaning = []string{s}
		} else {
			meaning, err := stringList(meaningVal)
			if err != nil {
				return form, err
			}
			form.Meaning = meaning
		}
	}
	if s, ok, err := optionalString(v, "orientation"); err != nil {
		return form, err
	} else if ok {
		form.Orientation = s
	}
	if s, ok, err := optionalString(v, "symmetry_class"); err != nil {
		return form, err
	} else if ok {
		form.SymmetryClass = s
	}
	if s, ok, err := optionalString(v, "curvature_class"); err != nil {
		return form, err
	} else if ok {
		form.CurvatureClass = s
	}

	dimVal := v.LookupPath(cue.ParsePath("dimensional_class"))
	if dimVal.Exists() {
		dim, err := dimVal.Int64()
		if err != nil {
			return form, formatCUEError(err)
		}
		form.DimensionalClass = int(dim)
	}

	depthVal := v.LookupPath(cue.ParsePath("iteration_depth"))
	if depthVal.Exists() {
		depth, err := depthVal.Int64()
		if err != nil {
			return form, formatCUEError(err)
		}
		d := int(depth)
		form.IterationDepth = &d
	}

	truncVal := v.LookupPath(cue.ParsePath("truncated"))
	if truncVal.Exists() {
		trunc, err := truncVal.Bool()
		if err != nil {
			return form, formatCUEError(err)
		}
		form.Truncated = trunc
	}

	if s, ok, err := optionalString(v, "notes"); err != nil {
		return form, err
	} else if ok {
		form.Notes = s
	}

	return form, nil
}

// parseRelations extracts relation definitions. Relation map labels are
// documentation only; relations carry no id of their own.
func parseRelations(v cue.Value) ([]canon.Relation, error) {
	var relations []canon.Relation

	relVal := v.LookupPath(cue.ParsePath("relation"))
	if !relVal.Exists() {
		return relations, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		label := iter.Label()
		relValue := iter.Value()

		rel := canon.Relation{}

		kind, err := requiredString(relValue, fmt.Sprintf("relation.%s.kind", label), "kind")
		if err != nil {
			return nil, err
		}
		rel.Kind = kind

		a, err := requiredString(relValue, fmt.Sprintf("relation.%s.a", label), "a")
		if err != nil {
			return nil, err
		}
		rel.A = a

		b, err := requiredString(relValue, fmt.Sprintf("relation.%s.b", label), "b")
		if err != nil {
			return nil, err
		}
		rel.B = b

		paramsVal := relValue.LookupPath(cue.ParsePath("params"))
		if paramsVal.Exists() {
			params, err := decodeObject(paramsVal)
			if err != nil {
				return nil, err
			}
			rel.Params = params
		}

		if s, ok, err := optionalString(relValue, "notes"); err != nil {
			return nil, err
		} else if ok {
			rel.Notes = s
		}

		relations = append(relations, rel)
	}

	return relations, nil
}

// parseTraces extracts trace definitions, keyed by id in source order.
func parseTraces(v cue.Value) ([]canon.Trace, error) {
	var traces []canon.Trace

	traceVal := v.LookupPath(cue.ParsePath("trace"))
	if !traceVal.Exists() {
		return traces, nil
	}

	iter, err := traceVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		id := iter.Label()
		tv := iter.Value()

		trace := canon.Trace{ID: id}

		kind, err := requiredString(tv, fmt.Sprintf("trace.%s.kind", id), "kind")
		if err != nil {
			return nil, err
		}
		trace.Kind = kind

		if s, ok, err := optionalString(tv, "source_form"); err != nil {
			return nil, err
		} else if ok {
			trace.SourceForm = s
		}
		if s, ok, err := optionalString(tv, "frame"); err != nil {
			return nil, err
		} else if ok {
			trace.Frame = s
		}
		if s, ok, err := optionalString(tv, "void_type"); err != nil {
			return nil, err
		} else if ok {
			trace.VoidType = s
		}

		closureVal := tv.LookupPath(cue.ParsePath("closure_status"))
		if closureVal.Exists() {
			closure, err := closureVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			status := canon.ClosureStatus(closure)
			if !canon.ValidClosureStatuses[status] {
				return nil, &CompileError{
					Field:   fmt.Sprintf("trace.%s.closure_status", id),
					Message: fmt.Sprintf("unknown closure status %q", closure),
					Pos:     closureVal.Pos(),
				}
			}
			trace.ClosureStatus = status
		}

		invVal := tv.LookupPath(cue.ParsePath("invariants_claimed"))
		if invVal.Exists() {
			invariants, err := stringList(invVal)
			if err != nil {
				return nil, err
			}
			trace.InvariantsClaimed = invariants
		}

		paramsVal := tv.LookupPath(cue.ParsePath("params"))
		if paramsVal.Exists() {
			params, err := decodeObject(paramsVal)
			if err != nil {
				return nil, err
			}
			trace.Params = params
		}

		if s, ok, err := optionalString(tv, "notes"); err != nil {
			return nil, err
		} else if ok {
			trace.Notes = s
		}

		traces = append(traces, trace)
	}

	return traces, nil
}

// parseConstraints extracts invariant constraints, keyed by name in
// source order.
func parseConstraints(v cue.Value) ([]canon.InvariantConstraint, error) {
	var constraints []canon.InvariantConstraint

	conVal := v.LookupPath(cue.ParsePath("constraint"))
	if !conVal.Exists() {
		return constraints, nil
	}

	iter, err := conVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		cv := iter.Value()

		con := canon.InvariantConstraint{Name: name}

		exprVal := cv.LookupPath(cue.ParsePath("expr"))
		if !exprVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("constraint.%s.expr", name),
				Message: "constraint expr is required",
				Pos:     cv.Pos(),
			}
		}
		expr, err := parseExpr(name, exprVal)
		if err != nil {
			return nil, err
		}
		con.Expr = expr

		scopeVal := cv.LookupPath(cue.ParsePath("scope"))
		if scopeVal.Exists() {
			scope, err := stringList(scopeVal)
			if err != nil {
				return nil, err
			}
			con.Scope = scope
		}

		if s, ok, err := optionalString(cv, "notes"); err != nil {
			return nil, err
		} else if ok {
			con.Notes = s
		}

		constraints = append(constraints, con)
	}

	return constraints, nil
}

func parseExpr(name string, v cue.Value) (canon.Expr, error) {
	var expr canon.Expr

	opStr, err := requiredString(v, fmt.Sprintf("constraint.%s.expr.op", name), "op")
	if err != nil {
		return expr, err
	}
	op := canon.ExprOp(opStr)
	if !canon.ValidExprOps[op] {
		return expr, &CompileError{
			Field:   fmt.Sprintf("constraint.%s.expr.op", name),
			Message: fmt.Sprintf("unknown expression op %q", opStr),
			Pos:     v.Pos(),
		}
	}
	expr.Op = op

	left, err := requiredString(v, fmt.Sprintf("constraint.%s.expr.left", name), "left")
	if err != nil {
		return expr, err
	}
	expr.Left = left

	if s, ok, err := optionalString(v, "right"); err != nil {
		return expr, err
	} else if ok {
		expr.Right = s
	}

	ratioVal := v.LookupPath(cue.ParsePath("ratio"))
	if ratioVal.Exists() {
		ratio, err := ratioVal.Float64()
		if err != nil {
			return expr, formatCUEError(err)
		}
		expr.Ratio = &ratio
	}

	tolVal := v.LookupPath(cue.ParsePath("tolerance"))
	if tolVal.Exists() {
		tol, err := tolVal.Float64()
		if err != nil {
			return expr, formatCUEError(err)
		}
		expr.Tolerance = &tol
	}

	return expr, nil
}

// parseTests extracts canon test requests, keyed by name in source
// order.
func parseTests(v cue.Value) ([]canon.CanonTestRequest, error) {
	var tests []canon.CanonTestRequest

	testVal := v.LookupPath(cue.ParsePath("test"))
	if !testVal.Exists() {
		return tests, nil
	}

	iter, err := testVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		label := iter.Label()
		tv := iter.Value()

		test := canon.CanonTestRequest{}

		kind, err := requiredString(tv, fmt.Sprintf("test.%s.test", label), "test")
		if err != nil {
			return nil, err
		}
		test.Test = kind

		scopeVal := tv.LookupPath(cue.ParsePath("scope"))
		if scopeVal.Exists() {
			scope, err := stringList(scopeVal)
			if err != nil {
				return nil, err
			}
			test.Scope = scope
		}

		paramsVal := tv.LookupPath(cue.ParsePath("params"))
		if paramsVal.Exists() {
			params, err := decodeObject(paramsVal)
			if err != nil {
				return nil, err
			}
			test.Params = params
		}

		if s, ok, err := optionalString(tv, "notes"); err != nil {
			return nil, err
		} else if ok {
			test.Notes = s
		}

		tests = append(tests, test)
	}

	return tests, nil
}

// decodeValue converts a concrete CUE value into a canon Value.
func decodeValue(v cue.Value) (canon.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canon.String(s), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canon.Int(i), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canon.Num(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return canon.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := canon.Array{}
		for iter.Next() {
			elem, err := decodeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		obj, err := decodeObject(v)
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// decodeObject converts a concrete CUE struct into a canon Object.
func decodeObject(v cue.Value) (canon.Object, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	obj := canon.Object{}
	for iter.Next() {
		val, err := decodeValue(iter.Value())
		if err != nil {
			return nil, err
		}
		obj[iter.Label()] = val
	}
	return obj, nil
}

// stringList reads a CUE list of strings.
func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func requiredString(v cue.Value, field, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", path),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
