package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultOptions().Validate())

	equal := DefaultOptions()
	equal.GroupWindow = time.Hour
	equal.GapThreshold = time.Hour
	assert.NoError(t, equal.Validate())

	cases := map[string]func(o *Options){
		"window above gap": func(o *Options) { o.GroupWindow = 3 * time.Hour; o.GapThreshold = time.Hour },
		"zero gap":         func(o *Options) { o.GapThreshold = 0 },
		"negative window":  func(o *Options) { o.GroupWindow = -time.Second },
		"negative caption": func(o *Options) { o.CaptionMaxRunes = -1 },
		"bad strategy":     func(o *Options) { o.Metadata = MetadataStrategy(9) },
	}
	for name, mutate := range cases {
		o := DefaultOptions()
		mutate(&o)
		assert.Error(t, o.Validate(), name)
	}
}

func TestParseMetadataStrategy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]MetadataStrategy{
		"full": MetadataFull, "2": MetadataOptimized, "": MetadataOptimized,
		"Minimal": MetadataMinimal, " none ": MetadataNone,
	} {
		got, err := ParseMetadataStrategy(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMetadataStrategy("verbose")
	assert.Error(t, err)
}
