package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/shell"
)

func newTestRegistry(t *testing.T, r *fakeRunner) *Registry {
	t.Helper()
	reg := NewRegistry(nil).WithMetrics(monitoring.NewMetrics())
	deps := testDeps(r, found)
	require.NoError(t, reg.Register(NewNmap(deps)))
	require.NoError(t, reg.Register(NewDistro(deps)))
	require.NoError(t, reg.Register(NewMetasploit(deps)))
	require.NoError(t, reg.Register(NewOSINT(OSINTConfig{Deps: deps})))
	return reg
}

func TestRegistryRegister(t *testing.T) {
	reg := newTestRegistry(t, &fakeRunner{})

	err := reg.Register(NewNmap(testDeps(&fakeRunner{}, found)))
	assert.Error(t, err, "duplicate names are rejected")

	_, err = reg.Get("nmap")
	assert.NoError(t, err)

	_, err = reg.Get("john")
	assert.ErrorIs(t, err, ErrUnknownTool)

	reg.Unregister("nmap")
	_, err = reg.Get("nmap")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistryList(t *testing.T) {
	reg := newTestRegistry(t, &fakeRunner{})

	infos := reg.List()
	require.Len(t, infos, 4)

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
		assert.NotEmpty(t, info.Description)
		assert.NotEmpty(t, info.Actions)
		assert.True(t, info.Installed)
	}
	assert.Equal(t, []string{"metasploit", "nmap", "osint", "proot-distro"}, names)
}

func TestRegistryRunAndInstall(t *testing.T) {
	r := &fakeRunner{res: shell.OK("ok\n")}
	reg := newTestRegistry(t, r)
	ctx := context.Background()

	res, err := reg.Run(ctx, "nmap", Request{Target: "127.0.0.1", Action: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", res.Output)
	assert.Equal(t, []string{"nmap", "-sn", "127.0.0.1"}, r.last(t).Argv)

	res, err = reg.Install(ctx, "proot-distro")
	require.NoError(t, err)
	assert.True(t, res.Success())

	_, err = reg.Run(ctx, "john", Request{})
	assert.ErrorIs(t, err, ErrUnknownTool)
	_, err = reg.Install(ctx, "john")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistryStats(t *testing.T) {
	reg := newTestRegistry(t, &fakeRunner{})

	stats := reg.Stats()
	assert.Equal(t, 4, stats["total_tools"])
	assert.Equal(t, 4, stats["installed_tools"])
	assert.Greater(t, stats["total_actions"].(int), 4)
}
