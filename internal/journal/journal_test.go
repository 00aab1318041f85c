package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/pkg/lambda"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	logger, _ := test.NewNullLogger()
	j, err := Open(filepath.Join(t.TempDir(), "journal", "invocations.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndGet(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{
		RequestID:    "req-1",
		FunctionName: "echo",
		EventSource:  "apigateway",
		CompletedBy:  "return",
		Result:       []byte(`{"statusCode":200}`),
		DurationMS:   1.5,
		RemainingMS:  2998,
	}))

	e, err := j.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "echo", e.FunctionName)
	assert.True(t, e.Succeeded())
	assert.JSONEq(t, `{"statusCode":200}`, string(e.Result))
	assert.Nil(t, e.Event)
	assert.Equal(t, 1.5, e.DurationMS)
	assert.False(t, e.RecordedAt.IsZero())

	_, err = j.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordRejectsDuplicateRequestID(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	e := Entry{RequestID: "dup", FunctionName: "f", EventSource: "s", CompletedBy: "return"}
	require.NoError(t, j.Record(ctx, e))
	assert.Error(t, j.Record(ctx, e))
}

func TestRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, fn := range []string{"a", "b", "a", "a"} {
		require.NoError(t, j.Record(ctx, Entry{
			RequestID:    string(rune('w' + i)),
			FunctionName: fn,
			EventSource:  "test",
			CompletedBy:  "return",
			RecordedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "z", all[0].RequestID)

	onlyA, err := j.Recent(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "z", onlyA[0].RequestID)
	assert.Equal(t, "y", onlyA[1].RequestID)
}

func TestReopenKeepsData(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "j.db")

	j, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), Entry{RequestID: "r", FunctionName: "f", EventSource: "s", CompletedBy: "return"}))
	require.NoError(t, j.Close())

	j, err = Open(path, logger)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Get(context.Background(), "r")
	assert.NoError(t, err)
}

func TestObserver(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	h := func(ctx context.Context, event map[string]string, lc *lambda.Context, cb lambda.Callback[map[string]string]) (map[string]string, error) {
		if event["fail"] != "" {
			return nil, errors.New(event["fail"])
		}
		return map[string]string{"ok": "yes"}, nil
	}

	ok := map[string]string{"name": "x"}
	lambda.Invoke(ctx, h, ok, &lambda.Context{AwsRequestID: "ok", FunctionName: "fn"}, lambda.WithObserver(j.Observer("test", ok)))

	bad := map[string]string{"fail": "broken"}
	lambda.Invoke(ctx, h, bad, &lambda.Context{AwsRequestID: "bad", FunctionName: "fn"}, lambda.WithObserver(j.Observer("test", bad)))

	e, err := j.Get(ctx, "ok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":"yes"}`, string(e.Result))
	assert.JSONEq(t, `{"name":"x"}`, string(e.Event))
	assert.Equal(t, "return", e.CompletedBy)

	e, err = j.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, e.Succeeded())
	assert.Equal(t, "broken", e.Error)
	assert.Nil(t, e.Result)
}
