package svcb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorRendering(t *testing.T) {
	e := errf(CodeDuplicateID, "scope id 3 already declared")
	assert.Equal(t, "svcb: DuplicateId: scope id 3 already declared", e.Error())

	// Positioned but outside the block stream (header stage).
	e.Offset = 4
	assert.Equal(t, "svcb: DuplicateId at offset 4: scope id 3 already declared", e.Error())

	e.Block = 2
	assert.Equal(t, "svcb: DuplicateId at offset 4 (block 2): scope id 3 already declared", e.Error())
}

func TestHeaderErrorOmitsBlock(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("nope\x00\x00\x00\x00")))
	requireCode(t, err, CodeBadMagic)
	assert.NotContains(t, err.Error(), "block")
}
