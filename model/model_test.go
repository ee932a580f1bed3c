package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCompleter_ScriptOrder(t *testing.T) {
	mock := NewMockCompleter().
		QueueText("first").
		QueueError(errors.New("scripted failure")).
		QueueText("second")

	resp, err := mock.Complete(context.Background(), Request{Messages: []Message{UserMessage("a")}})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	_, err = mock.Complete(context.Background(), Request{Messages: []Message{UserMessage("b")}})
	assert.ErrorContains(t, err, "scripted failure")

	resp, err = mock.Complete(context.Background(), Request{Messages: []Message{UserMessage("c")}})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	// Script exhausted: echo the last user message.
	resp, err = mock.Complete(context.Background(), Request{Messages: []Message{UserMessage("tail")}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: tail", resp.Text)

	require.Len(t, mock.Requests(), 4)
}

func TestMockCompleter_ConcurrentCompletes(t *testing.T) {
	mock := NewMockCompleter()

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := mock.Complete(context.Background(), Request{
				Messages: []Message{UserMessage(fmt.Sprintf("caller %d", i))},
			})
			assert.NoError(t, err)
			assert.NotNil(t, resp)
		}(i)
	}
	wg.Wait()

	assert.Len(t, mock.Requests(), callers)
}
