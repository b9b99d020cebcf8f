// Package pipeline implements the orchestration harness that chains a
// parse, a tree transformation, and whatever compile step comes after it
// into a single run: a topologically-ordered set of named stages wired
// together by junctions, plus a four-stage convenience wrapper for the
// common preprocess/parse/transform/compile shape.
package pipeline

import (
	"fmt"

	"github.com/dekarrin/parsekit/node"
	"github.com/dekarrin/parsekit/perror"
)

const fatalThreshold = perror.Fatal

// Callable runs one stage of an extended pipeline: given the root node
// produced at a junction's source stage, it produces the root node for
// the junction's target stage. A terminal stage that yields a non-tree
// value attaches that value to the returned root's Data field rather than
// returning it directly, so every stage in the graph shares one return
// shape.
type Callable func(source *node.Root) (*node.Root, error)

// Junction is one edge of the pipeline graph: running Factory()'s
// Callable against the root currently held at Source produces the root
// held at Target.
type Junction struct {
	Source  string
	Target  string
	Factory func() Callable
}

// Pipeline is a validated, topologically-ordered set of junctions.
type Pipeline struct {
	junctions []Junction
	order     []Junction
}

// New validates junctions (no two junctions may write the same target)
// and topologically sorts them by stage-name dependency. It returns an
// error if a target is written twice or if the junction graph has a
// cycle.
func New(junctions ...Junction) (*Pipeline, error) {
	writers := map[string]bool{}
	for _, j := range junctions {
		if writers[j.Target] {
			return nil, fmt.Errorf("stage %q is written by more than one junction", j.Target)
		}
		writers[j.Target] = true
	}

	order, err := topologicalSort(junctions)
	if err != nil {
		return nil, err
	}

	return &Pipeline{junctions: junctions, order: order}, nil
}

func topologicalSort(junctions []Junction) ([]Junction, error) {
	adj := map[string][]Junction{}
	inDegree := map[string]int{}
	names := map[string]bool{}

	for _, j := range junctions {
		adj[j.Source] = append(adj[j.Source], j)
		inDegree[j.Target]++
		names[j.Source] = true
		names[j.Target] = true
		if _, ok := inDegree[j.Source]; !ok {
			inDegree[j.Source] = 0
		}
	}

	var queue []string
	for n := range names {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var order []Junction
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, j := range adj[name] {
			order = append(order, j)
			inDegree[j.Target]--
			if inDegree[j.Target] == 0 {
				queue = append(queue, j.Target)
			}
		}
	}

	if len(order) != len(junctions) {
		return nil, fmt.Errorf("pipeline graph has a cycle")
	}
	return order, nil
}

// Run executes every junction once, in dependency order, starting from
// initial's stage values. A junction whose source stage was never
// produced (either never supplied, or blocked by an earlier fatal error
// or callable failure) is skipped, and its own target is left unproduced
// too - cutting off everything downstream of a failure without aborting
// independent branches (bifurcations sharing a healthy ancestor still
// run). Run returns every stage successfully produced, plus the first
// error encountered from each distinct failing junction.
func (p *Pipeline) Run(initial map[string]*node.Root) (map[string]*node.Root, []error) {
	results := make(map[string]*node.Root, len(initial)+len(p.order))
	for k, v := range initial {
		results[k] = v
	}

	var errs []error
	for _, j := range p.order {
		source, ok := results[j.Source]
		if !ok {
			continue // upstream was blocked or never supplied
		}
		if source != nil && source.Errors != nil && source.Errors.HasSeverity(fatalThreshold) {
			continue
		}

		target, err := j.Factory()(source)
		if err != nil {
			errs = append(errs, fmt.Errorf("stage %q: %w", j.Target, err))
			continue
		}
		results[j.Target] = target
	}

	return results, errs
}
