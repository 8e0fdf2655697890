package main

import (
	"bytes"
	"strings"
	"testing"

	"meetroom/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoomNew_PrintsIDAndFragment(t *testing.T) {
	out, err := execute(t, "room", "new", "--base-url", "https://meet.example/")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^[0-9a-z]{5}-[0-9a-z]{5}$`, lines[0])
	assert.Equal(t, "#/room/"+lines[0], lines[1])
	assert.Equal(t, "https://meet.example/#/room/"+lines[0], lines[2])
}

func TestRoomParse(t *testing.T) {
	out, err := execute(t, "room", "parse", "https://meet.example/#/room/k3x9a")

	require.NoError(t, err)
	assert.Equal(t, "k3x9a\n", out)
}

func TestRoomParse_BlankIsValidationError(t *testing.T) {
	_, err := execute(t, "room", "parse", "   ")

	assert.ErrorIs(t, err, models.ErrValidation)
}
