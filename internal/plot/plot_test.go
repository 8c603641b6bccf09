package plot_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsbundle/internal/plot"
	"github.com/Sumatoshi-tech/jsbundle/pkg/modgraph"
)

func TestGraph_RendersModulesAndLinks(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/web/main.js", []byte(`import { x } from "./util/x.js";`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/web/util/x.js", []byte(`export const x = 1;`), 0o644))

	g, err := modgraph.NewResolver(modgraph.Options{Fs: fs}).Discover(context.Background(), "/web/main.js")
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, plot.Graph(&buf, g))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "main.js")
	assert.Contains(t, html, "util/x.js")
	assert.Contains(t, html, "Module graph")
	assert.Contains(t, html, "force")
}
