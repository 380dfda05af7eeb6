package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/dirsearch/internal/db"
)

// ReplaceAll deletes delKeys and writes sets inside one MULTI/EXEC block.
// rueidis pipelines a single DoMulti call over one connection, so the queued
// commands execute as an atomic transaction: concurrent readers observe
// either the entire old key set or the entire new one.
func (s *Store) ReplaceAll(ctx context.Context, delKeys []string, sets []db.HashSetItem) error {
	if len(delKeys) == 0 && len(sets) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(sets)+3)
	cmds = append(cmds, s.b().Multi().Build())

	if len(delKeys) > 0 {
		cmds = append(cmds, s.b().Del().Key(delKeys...).Build())
	}

	for _, item := range sets {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
	}

	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)

	// Everything before EXEC must have queued cleanly.
	for i, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("queue command %d: %w", i, err)}
		}
	}

	exec := results[len(results)-1]
	if err := exec.Error(); err != nil {
		return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("exec: %w", err)}
	}

	// EXEC replies with one element per queued command. A command can still
	// fail at execution time after queueing cleanly, so inspect each reply.
	replies, err := exec.ToArray()
	if err != nil {
		return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("exec reply: %w", err)}
	}
	for i, reply := range replies {
		if err := reply.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("exec command %d: %w", i, err)}
		}
	}

	return nil
}
