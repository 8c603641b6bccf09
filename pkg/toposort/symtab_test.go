package toposort_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/jsbundle/pkg/toposort"
)

func TestSymbolTable_InternAndResolve(t *testing.T) {
	t.Parallel()

	table := toposort.NewSymbolTable()

	assert.Equal(t, 0, table.Intern("/p/a.js"))
	assert.Equal(t, 1, table.Intern("/p/b.js"))
	assert.Equal(t, 0, table.Intern("/p/a.js"))

	assert.Equal(t, "/p/b.js", table.Resolve(1))
	assert.Empty(t, table.Resolve(-1))
	assert.Empty(t, table.Resolve(2))
	assert.Equal(t, 2, table.Len())

	id, ok := table.Lookup("/p/b.js")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = table.Lookup("/p/c.js")
	assert.False(t, ok)
}

func TestSymbolTable_ConcurrentIntern(t *testing.T) {
	t.Parallel()

	table := toposort.NewSymbolTable()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, name := range []string{"a", "b", "c"} {
				table.Intern(name)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 3, table.Len())
}
