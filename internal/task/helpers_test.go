package task

import (
	"context"

	"github.com/google/uuid"
)

// testTask runs run when executed; a nil run succeeds.
type testTask struct {
	id  uuid.UUID
	run func(ctx context.Context) error
}

func newTestTask() *testTask {
	return &testTask{id: uuid.New()}
}

func (t *testTask) ID() uuid.UUID { return t.id }

func (t *testTask) Type() string { return "test" }

func (t *testTask) Execute(ctx context.Context) error {
	if t.run == nil {
		return nil
	}
	return t.run(ctx)
}
