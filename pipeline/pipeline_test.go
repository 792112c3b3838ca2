package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "test.append." + n.id }
func (n *appendNode) Kind() Kind   { return KindRecall }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_Run(t *testing.T) {
	var observed []string
	p := &Pipeline{
		Nodes: []Node{&appendNode{id: "P1"}, &appendNode{id: "P2"}},
		Observer: func(node Node, in, out int, _ time.Duration) {
			observed = append(observed, node.Name())
			if out != in+1 {
				t.Errorf("%s: in=%d out=%d", node.Name(), in, out)
			}
		},
	}

	items, err := p.Run(context.Background(), &core.RecommendContext{UserID: "U1"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := core.ItemIDs(items)
	if len(got) != 2 || got[0] != "P1" || got[1] != "P2" {
		t.Errorf("Run = %v, want [P1 P2]", got)
	}
	if len(observed) != 2 {
		t.Errorf("observer called %d times, want 2", len(observed))
	}
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: "P1"}, &appendNode{id: "P2", err: boom}}}

	_, err := p.Run(context.Background(), &core.RecommendContext{UserID: "U1"}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want wrapped boom", err)
	}
}
