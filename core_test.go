package embervk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateGraphicsInstanceRequiresDisplay(t *testing.T) {
	base := &BaseCore{
		name:      "headless",
		instances: make(map[string]*CoreRenderInstance, 1),
	}

	err := base.CreateGraphicsInstance("Render")
	assert.Error(t, err)
	assert.Nil(t, base.GetInstance("Render"))
}
