package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		want    string
	}{
		{name: "no commit", version: Version{Tag: "v1.0.0", Commit: "HEAD"}, want: "v1.0.0"},
		{name: "clean", version: Version{Tag: "v1.0.0", Commit: "0123456789abcdef"}, want: "v1.0.0+01234567"},
		{name: "dirty", version: Version{Tag: "v1.0.0", Commit: "0123456789abcdef", Dirty: true}, want: "v1.0.0-01234567-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.version.String())
		})
	}
}
