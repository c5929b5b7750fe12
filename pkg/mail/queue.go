/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/mailqueue/pkg/metrics"
	"github.com/telekom/mailqueue/pkg/queue"
)

// Store is the part of the queue the send loop needs.
type Store interface {
	NonDeferredBlock(ctx context.Context, limit int) ([]queue.QueuedMessage, error)
	Remove(ctx context.Context, id uint64) error
	Defer(ctx context.Context, id uint64, at time.Time) error
	RecordResult(ctx context.Context, messageID uint64, result int, detail string) error
}

// Result summarizes one SendAll pass.
type Result struct {
	Sent     int
	Deferred int
}

// Engine drains the non-deferred part of the queue through a Sender.
type Engine struct {
	store  Store
	sender Sender
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewEngine creates the send loop for store and sender.
func NewEngine(store Store, sender Sender, log *zap.SugaredLogger) *Engine {
	return &Engine{
		store:  store,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// SendAll sends every non-deferred message, loading at most blockSize
// entries at a time so that mail queued during the pass is picked up by a
// later block. Each message gets one attempt: a success removes its entry,
// a failure defers it. The pass ends when a block comes back empty. Store
// errors abort it; the context is checked between messages.
//
// No lock is taken on the queue. Only one send pass may run at a time;
// overlapping passes load the same entries and send them twice.
func (e *Engine) SendAll(ctx context.Context, blockSize int) (Result, error) {
	var res Result
	if blockSize <= 0 {
		return res, fmt.Errorf("block size must be positive, got %d", blockSize)
	}

	log := e.log.With("run", uuid.NewString())
	started := e.now()
	log.Infow("Sending queued mail", "blockSize", blockSize)

	for {
		block, err := e.store.NonDeferredBlock(ctx, blockSize)
		if err != nil {
			return res, err
		}
		if len(block) == 0 {
			break
		}
		log.Debugw("Loaded block", "size", len(block))

		for i := range block {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := e.sendOne(ctx, log, &block[i], &res); err != nil {
				return res, err
			}
		}
	}

	log.Infow("Queue drained",
		"sent", res.Sent,
		"deferred", res.Deferred,
		"duration", e.now().Sub(started).String())
	return res, nil
}

func (e *Engine) sendOne(ctx context.Context, log *zap.SugaredLogger, qm *queue.QueuedMessage, res *Result) error {
	host := e.sender.GetHost()

	sendErr := e.sender.Send(qm.Message)
	if sendErr == nil {
		if err := e.store.Remove(ctx, qm.ID); err != nil {
			return err
		}
		if err := e.store.RecordResult(ctx, qm.MessageID, queue.ResultSent, ""); err != nil {
			return err
		}
		metrics.MessagesSent.WithLabelValues(host).Inc()
		res.Sent++
		log.Infow("Sent",
			"id", qm.ID,
			"to", qm.Message.ToAddress,
			"subject", qm.Message.Subject)
		return nil
	}

	if err := e.store.Defer(ctx, qm.ID, e.now()); err != nil {
		return err
	}
	if err := e.store.RecordResult(ctx, qm.MessageID, queue.ResultFailed, sendErr.Error()); err != nil {
		return err
	}
	metrics.MessagesDeferred.WithLabelValues(host).Inc()
	res.Deferred++
	log.Warnw("Message deferred after failed send",
		"id", qm.ID,
		"to", qm.Message.ToAddress,
		"retries", qm.Retries+1,
		"error", sendErr)
	return nil
}
