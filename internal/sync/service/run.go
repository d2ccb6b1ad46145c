package service

import (
	"context"
	"hash/fnv"
	"strings"

	"golang.org/x/sync/errgroup"

	"dirsync/internal/sync/models"
)

// processRecords classifies source records in fixed-size chunks. Within a
// chunk, records are sharded across workers by their identifying key so no
// two concurrent operations ever target the same external-id or email; each
// shard is processed sequentially. Chunk boundaries carry no semantics
// beyond bounding in-flight work and giving cancellation a checkpoint.
func (s *Service) processRecords(ctx context.Context, recs []models.SourceRecord, lookup lookupFunc, summary *models.RunSummary, touch func(int64)) error {
	for _, chunk := range chunks(recs, s.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, shard := range shardByKey(chunk, s.cfg.Workers) {
			g.Go(func() error {
				for _, src := range shard {
					if err := gctx.Err(); err != nil {
						return err
					}
					res := s.classifyOne(gctx, src, lookup, touch)
					summary.Append(res)
					s.metrics.IncOutcome(string(res.Outcome))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func chunks(recs []models.SourceRecord, size int) [][]models.SourceRecord {
	if size <= 0 {
		size = 1
	}
	var out [][]models.SourceRecord
	for start := 0; start < len(recs); start += size {
		end := min(start+size, len(recs))
		out = append(out, recs[start:end])
	}
	return out
}

// shardByKey partitions records by an FNV hash of their identifying key.
// Records sharing a key always land in the same shard, which serializes
// writes per key.
func shardByKey(recs []models.SourceRecord, workers int) [][]models.SourceRecord {
	if workers <= 1 || len(recs) <= 1 {
		return [][]models.SourceRecord{recs}
	}
	shards := make([][]models.SourceRecord, workers)
	for _, rec := range recs {
		h := fnv.New32a()
		_, _ = h.Write([]byte(shardKey(rec)))
		i := int(h.Sum32()) % workers
		shards[i] = append(shards[i], rec)
	}
	out := shards[:0]
	for _, shard := range shards {
		if len(shard) > 0 {
			out = append(out, shard)
		}
	}
	return out
}

func shardKey(rec models.SourceRecord) string {
	if rec.ExternalID != "" {
		return rec.ExternalID
	}
	return strings.ToLower(rec.Identity())
}
