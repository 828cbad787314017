package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)

func TestValidateMimeType(t *testing.T) {
	t.Run("白名单为空放行所有类型", func(t *testing.T) {
		mime, err := ValidateMimeType(strings.NewReader("\x7fELF\x02\x01\x01"), nil)
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", mime)
	})

	t.Run("类型不在白名单内拒绝", func(t *testing.T) {
		mime, err := ValidateMimeType(strings.NewReader("\x7fELF\x02\x01\x01"), []string{"image/", "application/pdf"})
		require.Error(t, err)
		assert.Equal(t, "application/octet-stream", mime)
	})

	t.Run("前缀匹配放行", func(t *testing.T) {
		mime, err := ValidateMimeType(strings.NewReader(pngHeader), []string{"image/"})
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("完整类型匹配放行", func(t *testing.T) {
		mime, err := ValidateMimeType(strings.NewReader(pngHeader), []string{"image/png"})
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("带字符集后缀的文本按前缀匹配", func(t *testing.T) {
		// DetectContentType 对纯文本返回 "text/plain; charset=utf-8"
		mime, err := ValidateMimeType(strings.NewReader("hello world"), []string{"text/plain"})
		require.NoError(t, err)
		assert.Equal(t, "text/plain; charset=utf-8", mime)
	})

	t.Run("空白条目被忽略", func(t *testing.T) {
		_, err := ValidateMimeType(strings.NewReader(pngHeader), []string{" ", ""})
		require.Error(t, err)
	})
}
