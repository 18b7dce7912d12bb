package namespace

import (
	"fmt"

	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqlname"
)

// AliasCycle reports one cycle among WITH aliases.
type AliasCycle struct {
	// Path shows a traversal of the cycle, first name repeated at the end:
	// ["a", "b", "a"].
	Path []string

	// Message is a human-readable description.
	Message string
}

// AnalyzeAliasCycles performs static cycle analysis on a WITH list.
//
// It builds the alias dependency graph - an alias depends on every alias its
// body references - and finds strongly connected components with Tarjan's
// algorithm. Each SCC larger than one node, and each self-loop, is a cycle.
// Table references that match no alias are catalog tables and contribute no
// edges, and a reference bound by a nested WITH list that redeclares the
// name belongs to that inner alias, not the outer one. An acyclic WITH list
// returns an empty result.
//
// The validator runs this before walking alias bodies so a recursive alias
// fails with its full path; the per-namespace re-entrancy guard during
// validation catches cycles assembled by any other means.
func AnalyzeAliasCycles(ctes []sqlast.CTE, matcher sqlname.Matcher) []AliasCycle {
	if len(ctes) == 0 {
		return nil
	}

	// Canonical alias name -> declared spelling, for readable paths.
	declared := make(map[string]string, len(ctes))
	order := make([]string, 0, len(ctes))
	for _, cte := range ctes {
		canon := matcher.Canon(cte.Name)
		declared[canon] = cte.Name
		order = append(order, canon)
	}

	// Build alias -> referenced aliases. Shadowed references never reach the
	// graph: FreeTableNames drops any name a nested WITH list rebinds.
	graph := make(map[string][]string, len(ctes))
	for _, cte := range ctes {
		from := matcher.Canon(cte.Name)
		graph[from] = []string{}
		for _, ref := range sqlast.FreeTableNames(cte.Query, matcher.Canon) {
			canon := matcher.Canon(ref)
			if _, isAlias := declared[canon]; isAlias {
				graph[from] = append(graph[from], canon)
			}
		}
	}

	sccs := tarjanSCC(order, graph)

	var cycles []AliasCycle
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, declared))
		}
	}
	return cycles
}

func hasSelfLoop(node string, graph map[string][]string) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting nodes in the given
// order. Single-node SCCs without self-loops are not cycles.
func tarjanSCC(order []string, graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Visiting in declared order keeps reported cycle paths stable from run
	// to run; edge lists already carry body order.
	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToCycle(scc []string, declared map[string]string) AliasCycle {
	path := make([]string, 0, len(scc)+1)
	// Tarjan pops in reverse traversal order; reverse back for readability.
	for i := len(scc) - 1; i >= 0; i-- {
		path = append(path, declared[scc[i]])
	}
	path = append(path, path[0])
	return AliasCycle{
		Path:    path,
		Message: fmt.Sprintf("WITH alias %s participates in a reference cycle", path[0]),
	}
}
