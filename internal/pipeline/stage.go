package pipeline

import (
	"fmt"
	"time"

	"podscribe/internal/config"
	"podscribe/internal/job"
)

// stageDef fixes one stage's identity, its reserved slice of the global
// 0-100 progress scale, and its watchdog windows. Stage ranges are disjoint
// and increasing; together they cover the full scale for a successful
// remote-reference job.
type stageDef struct {
	status job.Status
	// label names the stage in logs, ledger rows, and error messages.
	label string
	// toolStage is the stage tag the tool reports on its diagnostic channel.
	// Progress lines carrying a different tag are ignored; lines with no tag
	// are accepted, since not every tool labels its output.
	toolStage    string
	rangeStart   float64
	rangeEnd     float64
	entryPercent float64
	entryMessage string
	timeout      time.Duration
	// stallWindow bounds the gap between progress events. Zero disables
	// stall detection; only streaming stages carry one.
	stallWindow time.Duration
	stallCheck  time.Duration
	// streams marks stages whose tools report fine-grained progress. The
	// others emit boundary events only.
	streams     bool
	liveMessage func(fraction float64) string
}

// percentAt maps a tool-local completion fraction into the stage's global range.
func (d stageDef) percentAt(fraction float64) float64 {
	return d.rangeStart + fraction*(d.rangeEnd-d.rangeStart)
}

type stages struct {
	metadata  stageDef
	acquire   stageDef
	recognize stageDef
	summarize stageDef
}

// buildStages binds the configured timeouts and the job's engine/model labels
// into per-stage definitions. The progress ranges and entry percents follow
// the values clients already expect: metadata announces at 10 inside its 0-20
// range, the others announce at their range start.
func buildStages(cfg *config.Config, j *job.Job) stages {
	pl := cfg.Pipeline
	stallWindow := seconds(pl.StallWindow)
	stallCheck := seconds(pl.StallCheckInterval)
	return stages{
		metadata: stageDef{
			status:       job.StatusMetadata,
			label:        "metadata",
			rangeStart:   0,
			rangeEnd:     20,
			entryPercent: 10,
			entryMessage: "Fetching episode metadata...",
			timeout:      seconds(pl.MetadataTimeout),
		},
		acquire: stageDef{
			status:       job.StatusAcquiring,
			label:        "download",
			toolStage:    "download",
			rangeStart:   20,
			rangeEnd:     30,
			entryPercent: 20,
			entryMessage: "Downloading audio...",
			timeout:      seconds(pl.AcquireTimeout),
			stallWindow:  stallWindow,
			stallCheck:   stallCheck,
			streams:      true,
			liveMessage: func(fraction float64) string {
				return fmt.Sprintf("Downloading audio... %d%%", int(fraction*100))
			},
		},
		recognize: stageDef{
			status:       job.StatusRecognizing,
			label:        "transcribe",
			toolStage:    "transcribe",
			rangeStart:   30,
			rangeEnd:     95,
			entryPercent: 30,
			entryMessage: "Starting transcription...",
			timeout:      seconds(pl.RecognizeTimeout),
			stallWindow:  stallWindow,
			stallCheck:   stallCheck,
			streams:      true,
			liveMessage: func(fraction float64) string {
				return fmt.Sprintf("Transcribing with %s Whisper (%s)... %d%%",
					engineLabel(j.Engine), j.ModelSize, int(fraction*100))
			},
		},
		summarize: stageDef{
			status:       job.StatusSummarizing,
			label:        "summarize",
			rangeStart:   95,
			rangeEnd:     100,
			entryPercent: 95,
			entryMessage: "Generating AI summary...",
			timeout:      seconds(pl.SummarizeTimeout),
		},
	}
}

func engineLabel(engine job.Engine) string {
	if engine == job.EngineOpenAI {
		return "OpenAI"
	}
	return string(engine)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}
