package formula

import (
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ecsim/ecsim/internal/ecsconfig"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/op"
	lru "github.com/hashicorp/golang-lru"
)

// assumptionCache memoizes resolveAssumptions's per-(lhs, rhs, field,
// operand values) result: the same assumption, evaluated against the same
// field and the same bound operands, always resolves to the same value,
// and EFD formulas reuse a handful of assumption shapes (half = 1/2,
// Z1 = 1, ...) across every curve instantiation of the same model. Sized
// from ecsconfig.Current().AssumptionCacheSize on first use, so a config
// file loaded before the first formula execution controls the bound.
var (
	assumptionCacheOnce sync.Once
	assumptionCacheInst *lru.Cache
)

func getAssumptionCache() *lru.Cache {
	assumptionCacheOnce.Do(func() {
		size := ecsconfig.Current().AssumptionCacheSize
		if size <= 0 {
			size = 1024
		}
		c, err := lru.New(size)
		if err != nil {
			c, _ = lru.New(1024)
		}
		assumptionCacheInst = c
	})
	return assumptionCacheInst
}

// assumptionCacheKey builds the cache key for evaluating a against env
// under field, or reports ok=false when a referenced operand is symbolic
// (no concrete X()) and therefore unsafe to key by value.
func assumptionCacheKey(a *op.CodeOp, field *big.Int, env map[string]mod.Mod) (string, bool) {
	var b strings.Builder
	b.WriteString(a.Source)
	b.WriteByte('|')
	b.WriteString(field.String())

	names := make([]string, 0, len(a.Parameters)+len(a.Variables))
	names = append(names, a.Parameters...)
	names = append(names, a.Variables...)
	sort.Strings(names)
	for _, name := range names {
		v, bound := env[name]
		if !bound {
			continue
		}
		x := v.X()
		if x == nil {
			return "", false
		}
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(x.String())
	}
	return b.String(), true
}
