package server

import (
	"expvar"
	"time"

	"github.com/facebookgo/stats"
)

// expvarStats is a stats.Client publishing through expvar. Averages and
// histograms are kept as a running sum and count, so the mean can be found
// from /debug/vars.
type expvarStats struct {
	m *expvar.Map
}

var _ stats.Client = expvarStats{}

// defaultStats is shared since an expvar name may only be published once.
var defaultStats = expvarStats{m: expvar.NewMap("fragments")}

func (e expvarStats) BumpSum(key string, val float64) {
	e.m.AddFloat(key, val)
}

func (e expvarStats) BumpAvg(key string, val float64) {
	e.m.AddFloat(key+".sum", val)
	e.m.Add(key+".count", 1)
}

func (e expvarStats) BumpHistogram(key string, val float64) {
	e.BumpAvg(key, val)
}

func (e expvarStats) BumpTime(key string) interface {
	End()
} {
	return timer{e: e, key: key, start: time.Now()}
}

type timer struct {
	e     expvarStats
	key   string
	start time.Time
}

// End records the milliseconds since the timer started.
func (t timer) End() {
	t.e.BumpAvg(t.key+".ms", float64(time.Since(t.start))/float64(time.Millisecond))
}
