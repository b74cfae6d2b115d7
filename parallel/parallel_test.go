package parallel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/runner"
	"github.com/vdobler/hurlgo/template"
)

func TestCollectOrdersOutOfSequenceMessages(t *testing.T) {
	ch := make(chan Message, 3)
	ch <- Message{Kind: Completed, Seq: 2}
	ch <- Message{Kind: Completed, Seq: 1}
	ch <- Message{Kind: Completed, Seq: 3}
	close(ch)

	var got []int
	for m := range Collect(ch) {
		got = append(got, m.Seq)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestCollectStreamsBeforeChannelCloses(t *testing.T) {
	ch := make(chan Message)
	out := Collect(ch)

	go func() { ch <- Message{Kind: Completed, Seq: 1} }()

	select {
	case m := <-out:
		assert.Equal(t, 1, m.Seq)
	case <-time.After(time.Second):
		t.Fatal("Collect did not emit Seq 1 before ch closed")
	}
	close(ch)
	_, ok := <-out
	assert.False(t, ok)
}

func TestCollectWithholdsLaterSeqUntilGapFills(t *testing.T) {
	ch := make(chan Message)
	out := Collect(ch)

	go func() { ch <- Message{Kind: Completed, Seq: 2} }()

	select {
	case <-out:
		t.Fatal("Collect emitted Seq 2 before Seq 1 arrived")
	case <-time.After(100 * time.Millisecond):
	}

	ch <- Message{Kind: Completed, Seq: 1}
	close(ch)

	var got []int
	for m := range out {
		got = append(got, m.Seq)
	}
	assert.Equal(t, []int{1, 2}, got)
}

func emptyScript(name string) *ast.Script {
	return &ast.Script{Filename: name}
}

func TestRunJobTagsOrdinarySuccessAsCompleted(t *testing.T) {
	pool := NewPool(1, runner.NewFileRunner())
	out := make(chan Message, 2)
	job := Job{ID: uuid.New(), Seq: 1, Script: emptyScript("ok.hurl"), Vars: template.NewVariableSet()}

	stop := pool.runJob(context.Background(), job, out)
	assert.False(t, stop)

	close(out)
	var kinds []MessageKind
	for m := range out {
		kinds = append(kinds, m.Kind)
	}
	require.Contains(t, kinds, Running)
	require.Contains(t, kinds, Completed)
}

func TestRunJobReportsParsingErrorForNilScript(t *testing.T) {
	pool := NewPool(1, runner.NewFileRunner())
	out := make(chan Message, 2)
	job := Job{ID: uuid.New(), Seq: 1, Script: nil, Vars: template.NewVariableSet()}

	stop := pool.runJob(context.Background(), job, out)
	assert.True(t, stop)

	close(out)
	var last Message
	for m := range out {
		last = m
	}
	assert.Equal(t, ParsingError, last.Kind)
}

func TestPoolRunStopsSubmittingAfterParsingError(t *testing.T) {
	scripts := []*ast.Script{nil, emptyScript("never-runs.hurl")}
	queue := NewJobQueue(scripts, 0, template.NewVariableSet)
	pool := NewPool(1, runner.NewFileRunner())

	ch := pool.Run(context.Background(), queue)

	var seen []Message
	for m := range ch {
		seen = append(seen, m)
	}

	var completions int
	for _, m := range seen {
		if m.Kind == Completed || m.Kind == IOError || m.Kind == ParsingError {
			completions++
		}
	}
	assert.Equal(t, 1, completions, "dispatcher must stop before the second script ever runs")
}
