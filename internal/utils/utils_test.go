package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-tender-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "", utils.Truncate("", 5))
	require.Equal(t, "short", utils.Truncate("short", 5))
	require.Equal(t, "abc...", utils.Truncate("abcdef", 3))
	require.Equal(t, "招标公告...", utils.Truncate("招标公告某某项目", 4))
	require.Equal(t, "01234567890123456789...", utils.Truncate("0123456789012345678901", 0))
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", utils.FirstNonEmpty("", "b", "c"))
	require.Equal(t, "—", utils.FirstNonEmpty("", ""))
}
