package capability

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinActions(t *testing.T) {
	actions := DefaultActions()
	ctx := context.Background()

	reverse, ok := actions.Tool("reverse")
	require.True(t, ok)
	res, err := reverse(ctx, Call{Arguments: map[string]interface{}{"text": "héllo"}})
	require.NoError(t, err)
	assert.Equal(t, "olléh", ResultText(res))

	echo, _ := actions.Tool("echo")
	res, err = echo(ctx, Call{Arguments: map[string]interface{}{"message": "hi"}, Params: map[string]interface{}{"field": "message"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", ResultText(res))

	_, err = echo(ctx, Call{Arguments: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestTimeNowAction(t *testing.T) {
	orig := timeNow
	t.Cleanup(func() { timeNow = orig })
	timeNow = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	res, err := timeNowAction(context.Background(), Call{Arguments: map[string]interface{}{"format": "2006-01-02"}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", ResultText(res))

	_, err = timeNowAction(context.Background(), Call{Arguments: map[string]interface{}{"timezone": "Mars/Olympus"}})
	assert.Error(t, err)
}

func TestCalculateAction(t *testing.T) {
	res, err := calculateAction(context.Background(), Call{Arguments: map[string]interface{}{
		"a": 6.0, "b": 7.0, "operation": "multiply",
	}})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(ResultText(res)), &out))
	assert.Equal(t, 42.0, out["result"])

	_, err = calculateAction(context.Background(), Call{Arguments: map[string]interface{}{
		"a": 1.0, "b": 0.0, "operation": "divide",
	}})
	assert.Error(t, err)

	_, err = calculateAction(context.Background(), Call{Arguments: map[string]interface{}{"a": "x", "b": 1.0}})
	assert.Error(t, err)
}

func TestActionSet_Names(t *testing.T) {
	tools, resources := DefaultActions().Names()
	assert.Equal(t, []string{"echo", "math.calculate", "reverse", "time.now"}, tools)
	assert.Equal(t, []string{"file.read"}, resources)
}

func TestGuessMIME(t *testing.T) {
	assert.Equal(t, "text/markdown", GuessMIME("README.md"))
	assert.Equal(t, "application/json", GuessMIME("/a/b/data.JSON"))
	assert.Equal(t, "image/png", GuessMIME("logo.png"))
	assert.Equal(t, "application/octet-stream", GuessMIME("blob.unknownext"))

	assert.True(t, IsTextMIME("text/csv"))
	assert.True(t, IsTextMIME("application/ld+json"))
	assert.False(t, IsTextMIME("image/png"))
}
