package bip39

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSeed(t *testing.T) {
	s := NewMnemonicService()

	m, err := s.GenerateMnemonic(128)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 12)
	assert.True(t, s.ValidateMnemonic(m))

	seed, err := s.MnemonicToSeed(m, "")
	require.NoError(t, err)
	assert.Len(t, seed, 64)
}

func TestMnemonicToSeed_Invalid(t *testing.T) {
	_, err := NewMnemonicService().MnemonicToSeed("not a real mnemonic", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}
