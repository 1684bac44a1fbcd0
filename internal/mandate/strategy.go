package mandate

import (
	"go.uber.org/zap"
)

// Strategy is one way of placing (or erasing) a value. Strategies are tried in
// order until one reports success; later strategies are then skipped, except
// Always strategies, which run regardless and never count as the success.
type Strategy struct {
	Name   string
	Always bool
	Run    func(s *session) (FillResult, bool)
}

// runChain executes strategies in order and reports whether one of the
// non-Always strategies succeeded
func runChain(s *session, chain string, strategies []Strategy) (FillResult, bool) {
	var res FillResult
	done := false
	for _, st := range strategies {
		if done && !st.Always {
			continue
		}
		r, ok := st.Run(s)
		res = res.Merge(r)
		s.log.Debug("mandate.strategy",
			zap.String("chain", chain),
			zap.String("strategy", st.Name),
			zap.Bool("ok", ok),
			zap.Int("writes", r.SuccessCount),
		)
		if ok && !st.Always {
			done = true
		}
	}
	return res, done
}
