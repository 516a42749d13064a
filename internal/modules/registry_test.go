package modules_test

import (
	"testing"

	"github.com/danmuck/cortex/internal/modules"
	"github.com/danmuck/cortex/internal/modules/annealer"
	"github.com/danmuck/cortex/internal/modules/hologram"
	"github.com/danmuck/cortex/internal/modules/tactical"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bareModule struct{ meta modules.Metadata }

func (b bareModule) Metadata() modules.Metadata { return b.meta }

func TestRegistryRegisterAndResolveKinds(t *testing.T) {
	net, err := tactical.New(tactical.DefaultModelConfig())
	require.NoError(t, err)

	reg := modules.NewRegistry()
	require.NoError(t, reg.Register(net))
	require.NoError(t, reg.Register(hologram.New(hologram.DefaultConfig(), nil, zerolog.Nop())))
	require.NoError(t, reg.Register(annealer.New(annealer.DefaultConfig(), nil, nil)))

	list := reg.ListMetadata()
	require.Len(t, list, 3)
	assert.Equal(t, "annealer", list[0].ID)
	assert.Equal(t, "hologram", list[1].ID)
	assert.Equal(t, "tactical", list[2].ID)

	_, err = reg.Inference("tactical")
	require.NoError(t, err)
	_, err = reg.Renderer("hologram")
	require.NoError(t, err)
	_, err = reg.Optimizer("annealer")
	require.NoError(t, err)

	_, err = reg.Renderer("tactical")
	assert.ErrorIs(t, err, modules.ErrWrongKind)
	_, err = reg.Optimizer("missing")
	assert.ErrorIs(t, err, modules.ErrModuleNotFound)
}

func TestRegistryRejectsDuplicatesAndBadMetadata(t *testing.T) {
	reg := modules.NewRegistry()
	good := bareModule{meta: modules.Metadata{ID: "mech.driver", Name: "Driver", Description: "link"}}
	require.NoError(t, reg.Register(good))
	assert.ErrorIs(t, reg.Register(good), modules.ErrModuleExists)
	assert.ErrorIs(t, reg.Register(nil), modules.ErrModuleNil)

	bad := []modules.Metadata{
		{ID: "", Name: "x", Description: "x"},
		{ID: "Upper", Name: "x", Description: "x"},
		{ID: ".lead", Name: "x", Description: "x"},
		{ID: "double..sep", Name: "x", Description: "x"},
		{ID: "ok", Name: " ", Description: "x"},
	}
	for _, meta := range bad {
		assert.ErrorIs(t, reg.Register(bareModule{meta: meta}), modules.ErrInvalidMetadata, meta.ID)
	}
}
