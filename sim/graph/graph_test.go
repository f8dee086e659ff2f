package graph

import "testing"

func TestBuild_SimpleChain(t *testing.T) {
	nodes := []Node{
		{ID: "a", Name: "A", Kind: KindAuxiliary, Equation: "1 + [B]"},
		{ID: "b", Name: "B", Kind: KindAuxiliary, Equation: "[C] * 2"},
		{ID: "c", Name: "C", Kind: KindConstant, HasValue: true},
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := map[string]int{}
	for i, id := range g.EvaluationOrder {
		pos[id] = i
	}
	if pos["c"] >= pos["b"] || pos["b"] >= pos["a"] {
		t.Errorf("order = %v, want c before b before a", g.EvaluationOrder)
	}
}

func TestBuild_MissingConstantValue(t *testing.T) {
	nodes := []Node{
		{ID: "c", Name: "C", Kind: KindConstant, HasValue: false},
	}
	_, err := Build(nodes)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, ok := err.(*MissingConstantValueError); !ok {
		t.Errorf("expected *MissingConstantValueError, got %T", err)
	}
}

func TestBuild_CycleDetected(t *testing.T) {
	nodes := []Node{
		{ID: "a", Name: "A", Kind: KindAuxiliary, Equation: "[B] + 1"},
		{ID: "b", Name: "B", Kind: KindAuxiliary, Equation: "[A] + 1"},
	}
	_, err := Build(nodes)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	cycleErr, ok := err.(*CycleError)
	if !ok {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if len(cycleErr.Nodes) != 2 {
		t.Errorf("expected both nodes in cycle, got %v", cycleErr.Nodes)
	}
}

func TestBuild_SelfReferenceIgnored(t *testing.T) {
	// A flow's own stock self-loop (A -> A) shouldn't create an auxiliary
	// self-dependency; here we check a variable referencing itself by
	// name is excluded from edges, not mistaken for a cycle.
	nodes := []Node{
		{ID: "a", Name: "A", Kind: KindAuxiliary, Equation: "[A] * 0 + 5"},
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.EvaluationOrder) != 1 {
		t.Errorf("expected 1 node in order, got %v", g.EvaluationOrder)
	}
}

func TestBuild_ReservedNamesExcluded(t *testing.T) {
	nodes := []Node{
		{ID: "a", Name: "A", Kind: KindAuxiliary, Equation: "TIME * 2 + IF TRUE THEN 1 ELSE 0 END IF"},
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.EvaluationOrder) != 1 {
		t.Errorf("expected 1 node, got %v", g.EvaluationOrder)
	}
}
