package capability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

func TestBindOnlyRequested(t *testing.T) {
	b := bus.New()
	defer b.Close()

	s := NewProvider(b, nil, time.Second).Bind("alias", []Name{GetAliases, SetAliases})

	assert.NotNil(t, s.GetAliases)
	assert.NotNil(t, s.SetAliases)
	assert.Nil(t, s.Login)
	assert.Nil(t, s.Prompt)
	assert.Nil(t, s.GetCommandList)
}

func TestUnknownCapabilityIsWarnedAndOmitted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := bus.New()
	defer b.Close()

	s := NewProvider(b, zap.New(core), time.Second).Bind("weird", []Name{"launchMissiles", GetHistory})

	assert.NotNil(t, s.GetHistory)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "unknown capability requested", entry.Message)
	assert.Equal(t, "launchMissiles", entry.ContextMap()["capability"])
	assert.False(t, Known("launchMissiles"))
	assert.True(t, Known(GetHistory))
}

func TestBoundFunctionsUseBus(t *testing.T) {
	b := bus.New()
	defer b.Close()

	b.Listen(types.TopicGetCommandList, "registry", func(_ context.Context, msg *bus.Message) {
		msg.Respond(types.CommandListResponse{Commands: []string{"help", "man"}})
	})
	b.Listen(types.TopicGetCommandMeta, "registry", func(_ context.Context, msg *bus.Message) {
		req := msg.Payload.(types.CommandMetaRequest)
		msg.Respond(types.CommandMetaResponse{Value: req.Name + ":" + req.Key, Found: true})
	})

	s := NewProvider(b, nil, time.Second).Bind("help", []Name{GetCommandList, GetCommandMeta})
	ctx := context.Background()

	names, err := s.GetCommandList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "man"}, names)

	value, found, err := s.GetCommandMeta(ctx, "man", types.MetaDescription)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "man:description", value)
}

func TestExportVariablePublishesUserspaceSet(t *testing.T) {
	b := bus.New()
	defer b.Close()

	got := make(chan types.VarRequest, 1)
	b.Listen(types.TopicVarSet, "env", func(_ context.Context, msg *bus.Message) {
		got <- msg.Payload.(types.VarRequest)
	})

	s := NewProvider(b, nil, time.Second).Bind("export", []Name{ExportVariable})
	s.ExportVariable("EDITOR", "vi")

	select {
	case req := <-got:
		assert.Equal(t, types.VarRequest{Key: "EDITOR", Value: "vi", Category: types.CategoryUserspace}, req)
	case <-time.After(time.Second):
		t.Fatal("variable set not published")
	}
}

func TestCapabilityTimeout(t *testing.T) {
	b := bus.New()
	defer b.Close()

	s := NewProvider(b, nil, 10*time.Millisecond).Bind("history", []Name{GetHistory})
	_, err := s.GetHistory(context.Background())
	assert.ErrorIs(t, err, bus.ErrTimeout)
}
