package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailSplitsLines(t *testing.T) {
	tail := NewTail(10)

	n, err := tail.Write([]byte("one\ntwo\n"))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)

	assert.Equal(t, []string{"one", "two"}, tail.Lines())
}

func TestTailBuffersPartialLine(t *testing.T) {
	tail := NewTail(10)

	tail.Write([]byte("hel"))
	assert.Empty(t, tail.Lines())

	tail.Write([]byte("lo\n"))
	assert.Equal(t, []string{"hello"}, tail.Lines())
}

func TestTailDropsOldestBeyondCapacity(t *testing.T) {
	tail := NewTail(2)

	tail.Write([]byte("a\nb\nc\nd\n"))
	assert.Equal(t, []string{"c", "d"}, tail.Lines())
}

func TestTailStripsCarriageReturn(t *testing.T) {
	tail := NewTail(10)

	tail.Write([]byte("windows line\r\n"))
	assert.Equal(t, []string{"windows line"}, tail.Lines())
}

func TestTailLinesReturnsCopy(t *testing.T) {
	tail := NewTail(10)
	tail.Write([]byte("stable\n"))

	lines := tail.Lines()
	lines[0] = "mutated"

	assert.Equal(t, []string{"stable"}, tail.Lines())
}
