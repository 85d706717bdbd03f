package net

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunction handles a single task. Any error it returns is fatal to
// the worker that ran it, per the teacher's WorkerPool contract.
type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed-size pool of tomb-supervised workers pulling
// tasks off a shared channel. Adapted directly from the teacher's
// internal/worker.go, folded into internal/net since it now has no
// callers outside of Server.
type WorkerPool struct {
	n     int
	tasks chan any
	work  WorkerFunction
}

func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// AddTask enqueues a task for the next available worker.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup maintains a full pool of workers running work until t dies.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.worker(t, work)
		})
	}
}

// worker repeatedly pulls a task and runs work, restarting after each task
// until t dies or work returns an error.
func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}
