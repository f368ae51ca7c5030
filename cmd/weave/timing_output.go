package main

import (
	"fmt"
	"io"
	"time"

	"weave/internal/buildpipeline"
	"weave/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, phases observ.Report) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageTranslate) {
		fmt.Fprintf(out, "translated %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageTranslate)))
	}
	if timings.Has(buildpipeline.StageWrite) {
		fmt.Fprintf(out, "written %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageWrite)))
	}
	if len(phases.Phases) == 0 {
		return
	}
	timer := observ.NewTimer()
	timer.Merge(phases)
	io.WriteString(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
