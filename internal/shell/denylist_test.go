package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenyListMatch(t *testing.T) {
	deny := NewDenyList("  reboot  ")

	tests := []struct {
		command string
		pattern string
		denied  bool
	}{
		{"ls -la", "", false},
		{"rm -rf /", "rm -rf /", true},
		{"sudo rm    -rf   /", "rm -rf /", true},
		{"mkfs -t ext4", "mkfs", true},
		{"dd if=/dev/zero", "dd if=", true},
		{"cat x > /dev/sda", "> /dev/sd", true},
		{"systemctl reboot", "reboot", true},
		{"rm -rf ./build", "", false},
		{"echo ddif=", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			pattern, denied := deny.Match(tt.command)
			assert.Equal(t, tt.denied, denied)
			if tt.denied {
				assert.NotEmpty(t, pattern)
			}
		})
	}
}

func TestDenyListPatternsIsCopy(t *testing.T) {
	deny := NewDenyList()
	p := deny.Patterns()
	p[0] = "mutated"

	assert.Equal(t, DefaultDenyPatterns[0], deny.Patterns()[0])
	assert.Len(t, p, len(DefaultDenyPatterns))
}

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(4)
	n, err := b.Write([]byte("ab"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.Write([]byte("cdef"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, "abcd"+truncatedMarker, b.String())

	unbounded := newCappedBuffer(0)
	_, _ = unbounded.Write([]byte("whatever"))
	assert.Equal(t, "whatever", unbounded.String())
}
