package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/registry"
)

func TestRegister_EveryFramework(t *testing.T) {
	for _, fw := range framework.All {
		r := registry.New()
		New(fw).Register(r)

		exts := r.Extensions(registry.ClassFrontExtractor)
		assert.NotEmpty(t, exts, fw.String())
		for _, e := range exts {
			assert.Equal(t, fw, e.Framework)
		}
	}

	r := registry.New()
	New(framework.TF).Register(r)
	_, ok := r.Extension("tf_Placeholder_extractor")
	assert.True(t, ok)
}
