package plannerserver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func response(t *testing.T, summary string) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{"summary": summary})
	require.NoError(t, err)
	return s
}

func TestIdempotencyManager_CheckAndStore(t *testing.T) {
	im := NewIdempotencyManager()
	im.Store("s1", "r1", response(t, "first"))

	tests := []struct {
		name      string
		sessionID string
		requestID string
		want      string
	}{
		{name: "hit", sessionID: "s1", requestID: "r1", want: "first"},
		{name: "other request", sessionID: "s1", requestID: "r2"},
		{name: "other session", sessionID: "s2", requestID: "r1"},
		{name: "empty request id", sessionID: "s1", requestID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := im.Check(tt.sessionID, tt.requestID)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Fields["summary"].GetStringValue())
		})
	}
}

func TestIdempotencyManager_EmptyKeyNotStored(t *testing.T) {
	im := NewIdempotencyManager()
	im.Store("s1", "", response(t, "x"))
	im.Store("s1", "r1", nil)
	assert.Zero(t, im.Len())
}

func TestIdempotencyManager_ReturnsCopies(t *testing.T) {
	im := NewIdempotencyManager()
	original := response(t, "first")
	im.Store("s1", "r1", original)
	original.Fields["summary"] = structpb.NewStringValue("mutated")

	got := im.Check("s1", "r1")
	assert.Equal(t, "first", got.Fields["summary"].GetStringValue())
	got.Fields["summary"] = structpb.NewStringValue("again")
	assert.True(t, proto.Equal(response(t, "first"), im.Check("s1", "r1")))
}

func TestIdempotencyManager_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	im := NewIdempotencyManager()
	im.now = func() time.Time { return now }
	im.Store("s1", "r1", response(t, "first"))

	now = now.Add(idempotencyTTL - time.Second)
	assert.NotNil(t, im.Check("s1", "r1"))
	now = now.Add(2 * time.Second)
	assert.Nil(t, im.Check("s1", "r1"))
}

func TestIdempotencyManager_CleanupWhenLarge(t *testing.T) {
	now := time.Unix(1000, 0)
	im := NewIdempotencyManager()
	im.now = func() time.Time { return now }
	for i := 0; i < idempotencyMaxSize; i++ {
		im.Store("old", fmt.Sprintf("r%d", i), response(t, "x"))
	}
	now = now.Add(idempotencyTTL + time.Minute)
	im.Store("new", "r0", response(t, "y"))
	assert.Equal(t, 1, im.Len())
}

func TestIdempotencyManager_Forget(t *testing.T) {
	im := NewIdempotencyManager()
	im.Store("s1", "r1", response(t, "a"))
	im.Store("s1", "r2", response(t, "b"))
	im.Store("s2", "r1", response(t, "c"))

	im.Forget("s1")
	assert.Equal(t, 1, im.Len())
	assert.Nil(t, im.Check("s1", "r1"))
	assert.NotNil(t, im.Check("s2", "r1"))
}
