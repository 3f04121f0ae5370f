package instance

import (
	"fmt"
	"net"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexsan123/quantvision/pkg/shellerr"
)

func TestPrimaryAcquiresLock(t *testing.T) {
	g := newGuardAt(t.TempDir(), "quantvision")
	defer g.Release()

	ok, err := g.Acquire()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	primary := newGuardAt(dir, "quantvision")
	defer primary.Release()
	ok, err := primary.Acquire()
	require.NoError(t, err)
	require.True(t, ok)

	secondary := newGuardAt(dir, "quantvision")
	ok, err = secondary.Acquire()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	first := newGuardAt(dir, "quantvision")
	ok, err := first.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	first.Release()

	second := newGuardAt(dir, "quantvision")
	defer second.Release()
	ok, err = second.Acquire()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNotifyExistingTriggersActivation(t *testing.T) {
	dir := t.TempDir()

	primary := newGuardAt(dir, "quantvision")
	defer primary.Release()
	ok, err := primary.Acquire()
	require.NoError(t, err)
	require.True(t, ok)

	var activations atomic.Int32
	require.NoError(t, primary.Listen(func() {
		activations.Add(1)
	}))

	secondary := newGuardAt(dir, "quantvision")
	ok, err = secondary.Acquire()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, secondary.NotifyExisting())

	require.Eventually(t, func() bool {
		return activations.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestActivationRequiresToken(t *testing.T) {
	dir := t.TempDir()

	primary := newGuardAt(dir, "quantvision")
	defer primary.Release()
	ok, err := primary.Acquire()
	require.NoError(t, err)
	require.True(t, ok)

	var activations atomic.Int32
	require.NoError(t, primary.Listen(func() {
		activations.Add(1)
	}))

	data, err := os.ReadFile(primary.portPath)
	require.NoError(t, err)
	port := strings.Fields(string(data))[0]

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
	require.NoError(t, err)
	fmt.Fprintln(conn, "ACTIVATE wrong-token")
	conn.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), activations.Load())
}

func TestNotifyWithoutPrimaryFails(t *testing.T) {
	g := newGuardAt(t.TempDir(), "quantvision")

	err := g.NotifyExisting()
	require.Error(t, err)
	assert.True(t, shellerr.IsErrorCode(err, shellerr.ErrorCodeInstanceLocked))
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := newGuardAt(t.TempDir(), "quantvision")

	ok, err := g.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g.Listen(nil))

	g.Release()
	g.Release()
}
