package taskrun_test

import (
	"os"
	"path/filepath"
	"testing"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pom = `<project>
  <properties>
    <saxon.version> 12.9.1 </saxon.version>
  </properties>
</project>
`

func TestReadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pom.xml")
	require.NoError(t, os.WriteFile(path, []byte(pom), 0o644))

	tests := []struct {
		name    string
		pattern string
		want    string
		wantErr string
	}{
		{name: "capture group", pattern: `<saxon\.version>([^<]+)</saxon\.version>`, want: "12.9.1"},
		{name: "whole match", pattern: `\d+\.\d+\.\d+`, want: "12.9.1"},
		{name: "no match", pattern: `<jackson\.version>([^<]+)<`, wantErr: "version not found in " + path},
		{name: "bad pattern", pattern: `(`, wantErr: "invalid version pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := taskrun.ReadVersion(path, tt.pattern)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadVersionMissingFile(t *testing.T) {
	_, err := taskrun.ReadVersion(filepath.Join(t.TempDir(), "pom.xml"), `(.*)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read version file")
}
