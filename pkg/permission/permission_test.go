package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardlab/hoard/pkg/identity"
	"github.com/hoardlab/hoard/pkg/persist"
)

func newRegistry(t *testing.T, names ...string) *identity.Registry {
	t.Helper()
	reg := identity.NewRegistry()
	for _, n := range names {
		_, err := reg.MakeEntity(n, nil)
		require.NoError(t, err)
	}
	return reg
}

func TestNewDefaultsToFullOwnerRights(t *testing.T) {
	p, err := New("bob", "devs", nil)
	require.NoError(t, err)

	for _, key := range []string{"r:bob", "w:bob", "x:bob", "r:devs", "w:devs", "x:devs"} {
		assert.True(t, p.Rights()[key], key)
	}
	_, hasOthers := p.Rights()["r:*"]
	assert.False(t, hasOthers)
}

func TestMakeValidatesNames(t *testing.T) {
	reg := newRegistry(t, "bob", "devs")

	_, err := Make(reg, "bob", "devs", 0o750)
	assert.NoError(t, err)

	_, err = Make(reg, "ghost", "devs", nil)
	assert.Error(t, err)

	_, err = Make(reg, "bob", "phantoms", nil)
	assert.Error(t, err)
}

func TestChmod(t *testing.T) {
	tests := []struct {
		name  string
		mode  any
		check map[string]bool
	}{
		{
			name: "int 755",
			mode: 0o755,
			check: map[string]bool{
				"r:bob": true, "w:bob": true, "x:bob": true,
				"r:devs": true, "w:devs": false, "x:devs": true,
				"r:*": true, "w:*": false, "x:*": true,
			},
		},
		{
			name: "octal string",
			mode: "640",
			check: map[string]bool{
				"r:bob": true, "w:bob": true, "x:bob": false,
				"r:devs": true, "w:devs": false, "x:devs": false,
				"r:*": false, "w:*": false, "x:*": false,
			},
		},
		{
			name: "special digit",
			mode: 0o5775,
			check: map[string]bool{
				"s:*": true, "t:*": true,
				"r:*": true, "w:*": false, "x:*": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New("bob", "devs", tt.mode)
			require.NoError(t, err)
			for key, want := range tt.check {
				assert.Equal(t, want, p.Rights()[key], key)
			}
		})
	}
}

func TestChmodZeroSpecialDigitLeavesFlags(t *testing.T) {
	p, err := New("bob", "devs", 0o1777)
	require.NoError(t, err)
	require.True(t, p.Sticky())

	require.NoError(t, p.Chmod(0o755))
	assert.True(t, p.Sticky(), "a zero special digit must not clear the sticky flag")
}

func TestChmodRejectsBadModes(t *testing.T) {
	p, err := New("bob", "", nil)
	require.NoError(t, err)

	assert.Error(t, p.Chmod("9x"))
	assert.Error(t, p.Chmod(3.14))
}

func TestChmodWithoutGroupSkipsGroupKeys(t *testing.T) {
	p, err := New("bob", "", 0o755)
	require.NoError(t, err)

	for key := range p.Rights() {
		assert.NotContains(t, key, ":devs")
	}
	assert.True(t, p.Rights()["r:*"])
}

func TestChownMigratesOwnerBits(t *testing.T) {
	p, err := New("bob", "devs", 0o750)
	require.NoError(t, err)

	p.Chown("alice")
	assert.Equal(t, "alice", p.User())
	assert.True(t, p.Rights()["r:alice"])
	assert.True(t, p.Rights()["w:alice"])
	assert.True(t, p.Rights()["x:alice"])
	_, stale := p.Rights()["r:bob"]
	assert.False(t, stale, "previous owner keys must be removed")
}

func TestChgrpMigratesGroupBits(t *testing.T) {
	p, err := New("bob", "devs", 0o750)
	require.NoError(t, err)

	p.Chgrp("ops")
	assert.Equal(t, "ops", p.Group())
	assert.True(t, p.Rights()["r:ops"])
	assert.False(t, p.Rights()["w:ops"])
	assert.True(t, p.Rights()["x:ops"])
	_, stale := p.Rights()["r:devs"]
	assert.False(t, stale)
}

func TestChgrpWithoutPreviousGroupGrantsAll(t *testing.T) {
	p, err := New("bob", "", nil)
	require.NoError(t, err)

	p.Chgrp("ops")
	assert.True(t, p.Rights()["r:ops"])
	assert.True(t, p.Rights()["w:ops"])
	assert.True(t, p.Rights()["x:ops"])
}

func TestIsRightGrantedOwnerPath(t *testing.T) {
	reg := newRegistry(t, "bob", "alice")
	p, err := Make(reg, "bob", "", 0o700)
	require.NoError(t, err)

	assert.True(t, p.IsRightGranted(reg, "bob", "r"))
	assert.False(t, p.IsRightGranted(reg, "alice", "r"))
	assert.False(t, p.IsRightGranted(reg, "ghost", "r"))

	// The registry can veto a right the permission bits would allow.
	reg.RevokeRight("bob", "r")
	assert.False(t, p.IsRightGranted(reg, "bob", "r"))
}

func TestIsRightGrantedGroupPath(t *testing.T) {
	reg := newRegistry(t, "bob", "carol", "devs", "staff")
	require.True(t, reg.AddLayerToEntity("devs", "staff"))
	require.True(t, reg.AddLayerToEntity("carol", "devs"))

	p, err := Make(reg, "bob", "staff", 0o750)
	require.NoError(t, err)

	// carol reaches "staff" through devs -> staff.
	assert.True(t, p.IsRightGranted(reg, "carol", "r"))
	assert.True(t, p.IsRightGranted(reg, "carol", "x"))
	assert.False(t, p.IsRightGranted(reg, "carol", "w"))

	// bob owns the object but is no group member; w comes from the owner bits.
	assert.True(t, p.IsRightGranted(reg, "bob", "w"))
}

func TestIsRightGrantedOthersPath(t *testing.T) {
	reg := newRegistry(t, "bob", "stranger")
	p, err := Make(reg, "bob", "", 0o704)
	require.NoError(t, err)

	assert.True(t, p.IsRightGranted(reg, "stranger", "r"))
	assert.False(t, p.IsRightGranted(reg, "stranger", "w"))

	// Revoking the right on "*" in the registry closes the others path.
	reg.RevokeRight(identity.Wildcard, "r")
	assert.False(t, p.IsRightGranted(reg, "stranger", "r"))
}

func TestShortString(t *testing.T) {
	p, err := New("bob", "devs", 0o5775)
	require.NoError(t, err)
	assert.Equal(t, "rwxrwxr-x+ bob devs", p.ShortString())

	q, err := New("bob", "devs", 0o640)
	require.NoError(t, err)
	assert.Equal(t, "rw-r----- bob devs", q.ShortString())
}

func TestPersistRoundTrip(t *testing.T) {
	reg := newRegistry(t, "bob", "devs", "carol")
	require.True(t, reg.AddLayerToEntity("carol", "devs"))

	p, err := Make(reg, "bob", "devs", 0o750)
	require.NoError(t, err)

	clone, err := persist.Clone(p)
	require.NoError(t, err)

	restored, ok := clone.(*Permissions)
	require.True(t, ok)
	assert.Equal(t, "bob", restored.User())
	assert.Equal(t, "devs", restored.Group())
	assert.True(t, restored.IsRightGranted(reg, "carol", "x"))
	assert.False(t, restored.IsRightGranted(reg, "carol", "w"))
}
