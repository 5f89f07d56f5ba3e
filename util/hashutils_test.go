package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCode(t *testing.T) {
	assert.Equal(t, HashCode([]byte("students.Profile")), HashCode([]byte("students.Profile")))
	assert.NotEqual(t, HashCode([]byte("students.Profile")), HashCode([]byte("students.Grades")))
}

func TestHashStringSeeds(t *testing.T) {
	assert.Equal(t, HashString("db.t", 0), HashString("db.t", 0))
	assert.NotEqual(t, HashString("db.t", 0), HashString("db.t", 1))
}
