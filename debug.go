package aspen

import "time"

// FrameStats holds timing and batching counters for one frame, accumulated
// across every flush since BeginFrame.
type FrameStats struct {
	Commands int // quads submitted
	Passes   int // device passes, one per segment
	Batches  int // device draw calls
	Skipped  int // draws dropped for stale or unresolved resources
	// Transfers is the number of pixel downloads completed.
	Transfers int

	SortTime   time.Duration
	BatchTime  time.Duration
	SubmitTime time.Duration
}

// Total returns the time spent sorting, batching and submitting.
func (s FrameStats) Total() time.Duration {
	return s.SortTime + s.BatchTime + s.SubmitTime
}

// logStats writes the frame's counters at debug level.
func (r *Renderer) logStats(s FrameStats) {
	Logger().Debug("aspen: frame",
		"commands", s.Commands,
		"passes", s.Passes,
		"batches", s.Batches,
		"skipped", s.Skipped,
		"transfers", s.Transfers,
		"sort", s.SortTime,
		"batch", s.BatchTime,
		"submit", s.SubmitTime,
		"total", s.Total(),
	)
}

// countBatches counts contiguous groups of commands sharing the same
// batchKey: the draw calls a sorted command list will produce.
func countBatches(commands []renderCommand) int {
	if len(commands) == 0 {
		return 0
	}
	count := 1
	prev := commandBatchKey(&commands[0])
	for i := 1; i < len(commands); i++ {
		cur := commandBatchKey(&commands[i])
		if cur != prev {
			count++
			prev = cur
		}
	}
	return count
}
