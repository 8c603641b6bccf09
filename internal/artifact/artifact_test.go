package artifact_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsbundle/internal/artifact"
)

func TestWrite_CreatesDirectoryAndFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := artifact.NewWriter(fs, "/out/dist")

	path, err := w.Write("bundle.js", []byte("(function(){})();\n"))
	require.NoError(t, err)
	assert.Equal(t, "/out/dist/bundle.js", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "(function(){})();\n", string(data))

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteWith_FailureKeepsPreviousArtifact(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := artifact.NewWriter(fs, "/out")

	_, err := w.Write("bundle.js", []byte("old"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = w.WriteWith("bundle.js", func(dst io.Writer) error {
		_, _ = dst.Write([]byte("half"))

		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := afero.ReadFile(fs, "/out/bundle.js")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	exists, err := afero.Exists(fs, "/out/bundle.js.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWrite_RejectsNestedNames(t *testing.T) {
	t.Parallel()

	w := artifact.NewWriter(afero.NewMemMapFs(), "/out")

	for _, name := range []string{"", ".", "..", "../bundle.js", "sub/bundle.js"} {
		_, err := w.Write(name, nil)
		require.ErrorIs(t, err, artifact.ErrInvalidName, name)
	}
}

func TestWriteCompressed_RoundTrips(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := artifact.NewWriter(fs, "/out")
	code := []byte(strings.Repeat("exports.value = require(\"/src/a.js\");\n", 200))

	path, n, err := w.WriteCompressed("bundle.js", code)
	require.NoError(t, err)
	assert.Equal(t, "/out/bundle.js.lz4", path)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Less(t, n, len(code))

	back, err := artifact.Decompress(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, code, back)
}
