package benchmark

// Aggregate computes Stats the way SQL AVG and MAX do: absent values are
// skipped and an aggregate with no inputs is nil.
func Aggregate(results []Result) Stats {
	var (
		ttft50, ttft90, tpot50, tpot90 mean
		throughput, accuracy           mean
		gpuUtil, memory                mean
		maxThroughput                  *float64
	)
	for i := range results {
		r := &results[i]
		ttft50.add(r.TTFTP50Ms)
		ttft90.add(r.TTFTP90Ms)
		tpot50.add(r.TPOTP50Ms)
		tpot90.add(r.TPOTP90Ms)
		throughput.add(r.ThroughputTokensSec)
		accuracy.add(r.AccuracyScore)
		gpuUtil.add(r.GPUUtilizationPct)
		memory.add(r.MemoryUsedGB)
		if r.ThroughputTokensSec != nil && (maxThroughput == nil || *r.ThroughputTokensSec > *maxThroughput) {
			v := *r.ThroughputTokensSec
			maxThroughput = &v
		}
	}

	return Stats{
		TotalBenchmarks:      len(results),
		AvgTTFTP50Ms:         ttft50.value(),
		AvgTTFTP90Ms:         ttft90.value(),
		AvgTPOTP50Ms:         tpot50.value(),
		AvgTPOTP90Ms:         tpot90.value(),
		AvgThroughput:        throughput.value(),
		MaxThroughput:        maxThroughput,
		AvgAccuracy:          accuracy.value(),
		AvgGPUUtilizationPct: gpuUtil.value(),
		AvgMemoryUsedGB:      memory.value(),
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
