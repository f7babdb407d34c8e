package apikey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
	assert.Len(t, Hash(Prefix+"key"), 64)
	assert.NotEqual(t, Hash("a"), Hash("b"))
}
