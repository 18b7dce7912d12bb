package sqlast

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relscope/internal/sqltype"
)

// The YAML tree format mirrors the node set one level at a time. Exactly one
// of the top-level keys must be present per node:
//
//	table: {name: EMP}
//	select:
//	  from: {table: {name: EMP}}
//	  items:
//	    - column: deptno
//	    - column: sal
//	      alias: salary
//	setop:
//	  op: union
//	  inputs: [...]
//	join:
//	  kind: left
//	  left: {...}
//	  right: {...}
//	  on: {call: {fn: "=", args: [{column: e.deptno}, {column: d.deptno}]}}
//	alias: {name: e, input: {table: {name: EMP}}}
//
// Column references use dotted shorthand: "e.deptno" is qualifier "e",
// name "deptno".

type nodeSpec struct {
	Table  *tableSpec  `yaml:"table"`
	Select *selectSpec `yaml:"select"`
	Setop  *setopSpec  `yaml:"setop"`
	Join   *joinSpec   `yaml:"join"`
	Alias  *aliasSpec  `yaml:"alias"`
	Unnest *exprSpec   `yaml:"unnest"`
	Param  *int        `yaml:"param"`
}

type tableSpec struct {
	Name string `yaml:"name"`
}

type selectSpec struct {
	With    []cteSpec   `yaml:"with"`
	From    *nodeSpec   `yaml:"from"`
	Items   []itemSpec  `yaml:"items"`
	Where   *exprSpec   `yaml:"where"`
	GroupBy []exprSpec  `yaml:"group_by"`
	OrderBy []orderSpec `yaml:"order_by"`
}

type cteSpec struct {
	Name  string    `yaml:"name"`
	Query *nodeSpec `yaml:"query"`
}

type itemSpec struct {
	exprSpec `yaml:",inline"`
	Alias    string `yaml:"alias"`
}

type orderSpec struct {
	exprSpec `yaml:",inline"`
	Desc     bool `yaml:"desc"`
}

type setopSpec struct {
	Op     string     `yaml:"op"`
	Inputs []nodeSpec `yaml:"inputs"`
}

type joinSpec struct {
	Kind  string    `yaml:"kind"`
	Left  *nodeSpec `yaml:"left"`
	Right *nodeSpec `yaml:"right"`
	On    *exprSpec `yaml:"on"`
}

type aliasSpec struct {
	Name    string    `yaml:"name"`
	Columns []string  `yaml:"columns"`
	Input   *nodeSpec `yaml:"input"`
}

type exprSpec struct {
	Column  string       `yaml:"column"`
	Literal *literalSpec `yaml:"literal"`
	Call    *callSpec    `yaml:"call"`
	ParamAt *int         `yaml:"param"`
}

type literalSpec struct {
	Type string `yaml:"type"`
	Text string `yaml:"text"`
}

type callSpec struct {
	Fn   string     `yaml:"fn"`
	Args []exprSpec `yaml:"args"`
}

// LoadTree deserializes a YAML query-tree description into nodes.
func LoadTree(data []byte) (Node, error) {
	var spec nodeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse query tree: %w", err)
	}
	return buildNode(&spec, "$")
}

// LoadTreeFile reads and deserializes a YAML query-tree file.
func LoadTreeFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query tree: %w", err)
	}
	return LoadTree(data)
}

func buildNode(spec *nodeSpec, path string) (Node, error) {
	if spec == nil {
		return nil, fmt.Errorf("%s: missing node", path)
	}

	set := 0
	if spec.Table != nil {
		set++
	}
	if spec.Select != nil {
		set++
	}
	if spec.Setop != nil {
		set++
	}
	if spec.Join != nil {
		set++
	}
	if spec.Alias != nil {
		set++
	}
	if spec.Unnest != nil {
		set++
	}
	if spec.Param != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: exactly one of table/select/setop/join/alias/unnest/param required, got %d", path, set)
	}

	switch {
	case spec.Table != nil:
		if spec.Table.Name == "" {
			return nil, fmt.Errorf("%s.table: name is required", path)
		}
		return &TableRef{Name: spec.Table.Name}, nil

	case spec.Select != nil:
		return buildSelect(spec.Select, path+".select")

	case spec.Setop != nil:
		return buildSetop(spec.Setop, path+".setop")

	case spec.Join != nil:
		return buildJoin(spec.Join, path+".join")

	case spec.Alias != nil:
		if spec.Alias.Name == "" {
			return nil, fmt.Errorf("%s.alias: name is required", path)
		}
		input, err := buildNode(spec.Alias.Input, path+".alias.input")
		if err != nil {
			return nil, err
		}
		return &Alias{Input: input, Name: spec.Alias.Name, Columns: spec.Alias.Columns}, nil

	case spec.Unnest != nil:
		e, err := buildExpr(spec.Unnest, path+".unnest")
		if err != nil {
			return nil, err
		}
		return &Unnest{Expr: e}, nil

	default:
		return &ParamRef{Ordinal: *spec.Param}, nil
	}
}

func buildSelect(spec *selectSpec, path string) (Node, error) {
	sel := &Select{}

	for i, cte := range spec.With {
		if cte.Name == "" {
			return nil, fmt.Errorf("%s.with[%d]: name is required", path, i)
		}
		q, err := buildNode(cte.Query, fmt.Sprintf("%s.with[%d].query", path, i))
		if err != nil {
			return nil, err
		}
		sel.With = append(sel.With, CTE{Name: cte.Name, Query: q})
	}

	if spec.From != nil {
		from, err := buildNode(spec.From, path+".from")
		if err != nil {
			return nil, err
		}
		sel.From = from
	}

	if len(spec.Items) == 0 {
		return nil, fmt.Errorf("%s: items is required", path)
	}
	for i, item := range spec.Items {
		e, err := buildExpr(&item.exprSpec, fmt.Sprintf("%s.items[%d]", path, i))
		if err != nil {
			return nil, err
		}
		sel.Items = append(sel.Items, SelectItem{Expr: e, Alias: item.Alias})
	}

	if spec.Where != nil {
		e, err := buildExpr(spec.Where, path+".where")
		if err != nil {
			return nil, err
		}
		sel.Where = e
	}

	for i := range spec.GroupBy {
		e, err := buildExpr(&spec.GroupBy[i], fmt.Sprintf("%s.group_by[%d]", path, i))
		if err != nil {
			return nil, err
		}
		sel.GroupBy = append(sel.GroupBy, e)
	}

	for i, ord := range spec.OrderBy {
		e, err := buildExpr(&ord.exprSpec, fmt.Sprintf("%s.order_by[%d]", path, i))
		if err != nil {
			return nil, err
		}
		sel.OrderBy = append(sel.OrderBy, OrderItem{Expr: e, Desc: ord.Desc})
	}

	return sel, nil
}

func buildSetop(spec *setopSpec, path string) (Node, error) {
	var op SetopKind
	switch strings.ToLower(spec.Op) {
	case "union":
		op = Union
	case "intersect":
		op = Intersect
	case "except":
		op = Except
	default:
		return nil, fmt.Errorf("%s.op: invalid set operation %q: must be union, intersect, or except", path, spec.Op)
	}

	if len(spec.Inputs) < 2 {
		return nil, fmt.Errorf("%s: at least two inputs required", path)
	}
	out := &Setop{Op: op}
	for i := range spec.Inputs {
		in, err := buildNode(&spec.Inputs[i], fmt.Sprintf("%s.inputs[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out.Inputs = append(out.Inputs, in)
	}
	return out, nil
}

func buildJoin(spec *joinSpec, path string) (Node, error) {
	var kind JoinKind
	switch strings.ToLower(spec.Kind) {
	case "", "inner":
		kind = InnerJoin
	case "left":
		kind = LeftOuterJoin
	case "right":
		kind = RightOuterJoin
	case "full":
		kind = FullOuterJoin
	default:
		return nil, fmt.Errorf("%s.kind: invalid join kind %q: must be inner, left, right, or full", path, spec.Kind)
	}

	left, err := buildNode(spec.Left, path+".left")
	if err != nil {
		return nil, err
	}
	right, err := buildNode(spec.Right, path+".right")
	if err != nil {
		return nil, err
	}

	join := &Join{Kind: kind, Left: left, Right: right}
	if spec.On != nil {
		on, err := buildExpr(spec.On, path+".on")
		if err != nil {
			return nil, err
		}
		join.On = on
	}
	return join, nil
}

func buildExpr(spec *exprSpec, path string) (Expr, error) {
	set := 0
	if spec.Column != "" {
		set++
	}
	if spec.Literal != nil {
		set++
	}
	if spec.Call != nil {
		set++
	}
	if spec.ParamAt != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: exactly one of column/literal/call/param required, got %d", path, set)
	}

	switch {
	case spec.Column != "":
		if qual, name, ok := strings.Cut(spec.Column, "."); ok {
			return &ColumnRef{Qualifier: qual, Name: name}, nil
		}
		return &ColumnRef{Name: spec.Column}, nil

	case spec.Literal != nil:
		kind, ok := sqltype.ParseKind(strings.ToUpper(spec.Literal.Type))
		if !ok {
			return nil, fmt.Errorf("%s.literal: unknown type %q", path, spec.Literal.Type)
		}
		return &Literal{Type: sqltype.Of(kind), Text: spec.Literal.Text}, nil

	case spec.Call != nil:
		if spec.Call.Fn == "" {
			return nil, fmt.Errorf("%s.call: fn is required", path)
		}
		call := &Call{Fn: spec.Call.Fn}
		for i := range spec.Call.Args {
			arg, err := buildExpr(&spec.Call.Args[i], fmt.Sprintf("%s.call.args[%d]", path, i))
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil

	default:
		return &ParamExpr{Ordinal: *spec.ParamAt}, nil
	}
}
