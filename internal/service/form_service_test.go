package service

import (
	"smartform_backend/internal/model"
	"smartform_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileQuestionAcceptedTypes(t *testing.T) {
	fileQ := question("q-file", "简历", model.QuestionFile)
	fileQ.Options = model.StringList{"application/pdf", "image/"}
	openQ := question("q-open", "作品集", model.QuestionFile)
	form := &model.Form{Questions: []model.Question{
		question("q-name", "名字", model.QuestionText),
		fileQ,
		openQ,
	}}

	t.Run("返回文件问题声明的白名单", func(t *testing.T) {
		allowed, err := FileQuestionAcceptedTypes(form, "q-file")
		require.NoError(t, err)
		assert.Equal(t, []string{"application/pdf", "image/"}, []string(allowed))
	})

	t.Run("未声明白名单返回空列表", func(t *testing.T) {
		allowed, err := FileQuestionAcceptedTypes(form, "q-open")
		require.NoError(t, err)
		assert.Empty(t, allowed)
	})

	t.Run("非文件类问题拒绝", func(t *testing.T) {
		_, err := FileQuestionAcceptedTypes(form, "q-name")
		assert.ErrorIs(t, err, util.ErrInvalidQuestionType)
	})

	t.Run("问题不存在", func(t *testing.T) {
		_, err := FileQuestionAcceptedTypes(form, "missing")
		assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	})
}
