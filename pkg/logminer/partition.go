/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"context"
	"sync"
)

type (
	// LineResult is the cluster of one line after partitioned mining. ClusterId is 0 when Err is set.
	LineResult struct {
		ClusterId int
		Err       error
	}

	// Partitioned holds the merged miner and the final assignment of every input line.
	Partitioned struct {
		Miner *Miner
		Lines []LineResult
	}

	partition struct {
		miner *Miner
		// local cluster id per line of the chunk
		ids  []int
		errs []error
	}
)

// IngestPartitioned mines contiguous chunks of lines with private miners in parallel,
// then absorbs the clusters of every chunk, in chunk order, into one global miner.
// Local ids are remapped so each line refers to a global cluster.
func IngestPartitioned(ctx context.Context, config Config, lines []string, workers int) (*Partitioned, error) {
	global, err := New(config)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(lines) {
		workers = len(lines)
	}

	parts := make([]*partition, workers)
	for w := range parts {
		local, err := New(config)
		if err != nil {
			return nil, err
		}
		parts[w] = &partition{miner: local}
	}
	chunk := 0
	if workers > 0 {
		chunk = (len(lines) + workers - 1) / workers
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		begin := w * chunk
		end := begin + chunk
		if end > len(lines) {
			end = len(lines)
		}
		p := parts[w]
		if begin >= end {
			continue
		}
		wg.Add(1)
		go func(p *partition, chunk []string) {
			defer wg.Done()
			p.ids = make([]int, len(chunk))
			p.errs = make([]error, len(chunk))
			for i, line := range chunk {
				if i%1024 == 0 && ctx.Err() != nil {
					p.errs[i] = ctx.Err()
					return
				}
				a, err := p.miner.Ingest(line)
				if err != nil {
					p.errs[i] = err
					continue
				}
				p.ids[i] = a.ClusterId
			}
		}(p, lines[begin:end])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Partitioned{Miner: global, Lines: make([]LineResult, 0, len(lines))}
	for _, p := range parts {
		remap := make([]int, len(p.miner.clusters)+1)
		for _, c := range p.miner.clusters {
			remap[c.Id] = global.absorb(c)
		}
		for i, id := range p.ids {
			result.Lines = append(result.Lines, LineResult{ClusterId: remap[id], Err: p.errs[i]})
		}
	}
	return result, nil
}
