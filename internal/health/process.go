package health

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ComponentProcess is the check name used by ProcessSampler.
const ComponentProcess = "process"

// ProcessStats is a resource usage sample of this process.
type ProcessStats struct {
	CPUPercent float64   `json:"cpuPercent"`
	RSSBytes   uint64    `json:"rssBytes"`
	Threads    int32     `json:"threads"`
	SampledAt  time.Time `json:"sampledAt"`
}

// ProcessSampler periodically samples the resource usage of this process.
type ProcessSampler struct {
	monitor *Monitor
	proc    *process.Process

	mu   sync.RWMutex
	last ProcessStats
}

// NewProcessSampler samples the current process and reports into m.
func NewProcessSampler(m *Monitor) (*ProcessSampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessSampler{monitor: m, proc: p}, nil
}

// Sample takes one measurement.
func (s *ProcessSampler) Sample(ctx context.Context) ProcessStats {
	stats := ProcessStats{SampledAt: time.Now()}
	if cpu, err := s.proc.PercentWithContext(ctx, 0); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := s.proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if n, err := s.proc.NumThreadsWithContext(ctx); err == nil {
		stats.Threads = n
	}

	s.mu.Lock()
	s.last = stats
	s.mu.Unlock()
	s.monitor.Update(ComponentProcess, Healthy, "")
	return stats
}

// Last returns the most recent sample.
func (s *ProcessSampler) Last() ProcessStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run samples every interval until ctx is done.
func (s *ProcessSampler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sample(ctx)
		}
	}
}
