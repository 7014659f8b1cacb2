package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeService_Generate(t *testing.T) {
	svc := NewCodeService()

	code, codeHash, err := svc.Generate()
	require.NoError(t, err)

	assert.Len(t, code, 6)
	assert.Regexp(t, `^\d{6}$`, code)
	assert.NotEqual(t, code, codeHash)
	assert.NotEmpty(t, codeHash)
}

func TestCodeService_Compare(t *testing.T) {
	svc := NewCodeService()

	code, codeHash, err := svc.Generate()
	require.NoError(t, err)

	assert.True(t, svc.Compare(code, codeHash))

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	assert.False(t, svc.Compare(wrong, codeHash))
	assert.False(t, svc.Compare(code, "not-a-hash"))
}
