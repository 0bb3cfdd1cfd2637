package triage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-triage/gh-triage/pkg/models"
)

func newBatchFixture(t *testing.T, issues *fakeIssueSource) *BatchRunner {
	t.Helper()
	engine, _ := newTestEngine(t, &fakeLLM{response: validResponse}, issues, &fakeEvidenceSource{})
	return NewBatchRunner(engine)
}

func TestBatchRunner_ContinuesPastFailures(t *testing.T) {
	issues := &fakeIssueSource{issues: map[int]*models.Issue{}}
	for _, n := range []int{1, 2, 4, 5} {
		issues.issues[n] = testIssue(n, "issue", "body")
	}
	// Issue 3 is missing, so its triage fails

	runner := newBatchFixture(t, issues)
	runner.Run(context.Background(), "acme", "widget", []int{1, 2, 3, 4, 5})

	status := runner.Status()
	assert.Equal(t, BatchCompleted, status.Status)
	assert.Equal(t, 5, status.Total)
	assert.Equal(t, 4, status.Processed)
	assert.Equal(t, 0, status.CurrentIssue)
	require.Len(t, status.Errors, 1)
	assert.Equal(t, 3, status.Errors[0].IssueNumber)
	assert.NotEmpty(t, status.Errors[0].Message)
}

func TestBatchRunner_RecoversFromPanic(t *testing.T) {
	issues := &fakeIssueSource{
		issues: map[int]*models.Issue{1: testIssue(1, "ok", "body")},
		panics: map[int]bool{2: true},
	}

	runner := newBatchFixture(t, issues)
	runner.Run(context.Background(), "acme", "widget", []int{1, 2})

	status := runner.Status()
	assert.Equal(t, BatchCompleted, status.Status)
	assert.Equal(t, 1, status.Processed)
	require.Len(t, status.Errors, 1)
	assert.Equal(t, 2, status.Errors[0].IssueNumber)
	assert.Contains(t, status.Errors[0].Message, "panic")
}

func TestBatchRunner_StatusIsSnapshot(t *testing.T) {
	issues := &fakeIssueSource{issues: map[int]*models.Issue{}}

	runner := newBatchFixture(t, issues)
	runner.Run(context.Background(), "acme", "widget", []int{1, 2})

	status := runner.Status()
	require.Len(t, status.Errors, 2)
	status.Errors[0].Message = "mutated"

	assert.NotEqual(t, "mutated", runner.Status().Errors[0].Message)
}

func TestBatchRunner_ConcurrentStatusPolling(t *testing.T) {
	issues := &fakeIssueSource{issues: map[int]*models.Issue{}}
	numbers := make([]int, 50)
	for i := range numbers {
		numbers[i] = i + 1
		issues.issues[i+1] = testIssue(i+1, "issue", "body")
	}

	runner := newBatchFixture(t, issues)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s := runner.Status()
			assert.GreaterOrEqual(t, s.Total, 0)
		}
	}()

	runner.Run(context.Background(), "acme", "widget", numbers)
	wg.Wait()

	assert.Equal(t, 50, runner.Status().Processed)
}
