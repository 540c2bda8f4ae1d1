package hashengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romorganizer/internal/headerrule"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestHashEmptyFile(t *testing.T) {
	res, err := Hash(writeTemp(t, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Size: 0, CRC32: "", MD5: "", SHA1: ""}, res)
}

func TestHashKnownCRC32CheckValue(t *testing.T) {
	res, err := Hash(writeTemp(t, []byte("123456789")), nil)
	require.NoError(t, err)
	assert.Equal(t, "CBF43926", res.CRC32)
	assert.Len(t, res.CRC32, 8)
	assert.EqualValues(t, 9, res.Size)
}

func TestHashIsDeterministic(t *testing.T) {
	content := make([]byte, chunkSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := writeTemp(t, content)

	first, err := Hash(path, nil)
	require.NoError(t, err)
	second, err := Hash(path, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHashWithMatchingRuleSkipsPrefix(t *testing.T) {
	header := make([]byte, 16)
	header[1] = 0x41
	header[2] = 0x54
	body := []byte("the rest of the file content that gets hashed")
	content := append(header, body...)
	path := writeTemp(t, content)

	rule := &headerrule.Rule{
		StartOffset: 16,
		Matches:     []headerrule.Match{{Offset: 1, Expected: []byte{0x41, 0x54}}},
	}

	withRule, err := Hash(path, rule)
	require.NoError(t, err)
	withoutRule, err := Hash(writeTemp(t, body), nil)
	require.NoError(t, err)

	assert.Equal(t, withoutRule, withRule)
	assert.EqualValues(t, len(body), withRule.Size)
}

func TestHashWithNonMatchingRuleHashesWholeFile(t *testing.T) {
	header := make([]byte, 16)
	header[1] = 0x00 // does not match expected 0x41
	body := []byte("payload")
	content := append(header, body...)
	path := writeTemp(t, content)

	rule := &headerrule.Rule{
		StartOffset: 16,
		Matches:     []headerrule.Match{{Offset: 1, Expected: []byte{0x41, 0x54}}},
	}

	withRule, err := Hash(path, rule)
	require.NoError(t, err)
	whole, err := Hash(path, nil)
	require.NoError(t, err)

	assert.Equal(t, whole, withRule)
	assert.EqualValues(t, len(content), withRule.Size)
}

func TestHashWithZeroStartOffsetMatchedRuleStillHashesEverything(t *testing.T) {
	content := []byte("ABCDEFGH")
	path := writeTemp(t, content)

	rule := &headerrule.Rule{
		StartOffset: 0,
		Matches:     []headerrule.Match{{Offset: 0, Expected: []byte{'A', 'B'}}},
	}

	withRule, err := Hash(path, rule)
	require.NoError(t, err)
	whole, err := Hash(path, nil)
	require.NoError(t, err)

	assert.Equal(t, whole, withRule)
}
