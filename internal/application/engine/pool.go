package engine

// pool.go — worker pool para los jobs en segundo plano del motor (apuestas,
// saldo, persistencia). Los handlers de eventos nunca bloquean en red.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
)

// Job es una tarea en segundo plano. Recibe el contexto del pool, no el del
// evento que la originó.
type Job func(ctx context.Context)

// Dispatcher ejecuta jobs de forma asíncrona.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job)
}

// DispatchFunc adapta una función a Dispatcher.
type DispatchFunc func(ctx context.Context, job Job)

func (f DispatchFunc) Dispatch(ctx context.Context, job Job) { f(ctx, job) }

// Inline ejecuta cada job en el goroutine que lo despacha.
var Inline Dispatcher = DispatchFunc(func(ctx context.Context, job Job) { job(ctx) })

// Pool es un worker pool de tamaño fijo con cola acotada.
type Pool struct {
	workers int
	queue   chan Job
	wg      sync.WaitGroup
}

// NewPool crea el pool. Si workers <= 0 usa runtime.NumCPU().
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{workers: workers, queue: make(chan Job, queueSize)}
}

// Run arranca los workers y bloquea hasta que ctx se cancela y todos terminan
// su job en curso. Los jobs pendientes en cola se descartan.
func (p *Pool) Run(ctx context.Context) error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-p.queue:
					p.run(ctx, job)
				}
			}
		}()
	}
	p.wg.Wait()
	slog.Debug("pool: stopped", "dropped", len(p.queue))
	return nil
}

// Dispatch encola el job. Si la cola está llena el job se descarta con un
// warning en lugar de bloquear el handler de eventos.
func (p *Pool) Dispatch(ctx context.Context, job Job) {
	select {
	case p.queue <- job:
	case <-ctx.Done():
	default:
		slog.Warn("pool: queue full, job dropped", "queue", cap(p.queue))
	}
}

func (p *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pool: job panicked", "panic", r)
		}
	}()
	job(ctx)
}
