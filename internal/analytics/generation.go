package analytics

import (
	"context"
	"sync"
)

// Generations отслеживает последний запрос каждого представления (view) дашборда.
// Новый запрос того же view отменяет контекст предыдущего, а результат устаревшего
// запроса не применяется, даже если он успел досчитаться.
type Generations struct {
	mu    sync.Mutex
	seq   uint64 // глобальный счетчик, поколения уникальны между view
	views map[string]*view
}

type view struct {
	gen    uint64
	cancel context.CancelFunc
}

// Ticket фиксирует поколение в момент отправки запроса.
type Ticket struct {
	Key string
	Gen uint64
}

func NewGenerations() *Generations {
	return &Generations{views: make(map[string]*view)}
}

// Begin регистрирует новый запрос view и возвращает его контекст.
func (g *Generations) Begin(parent context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	v, ok := g.views[key]
	if ok {
		v.cancel() // предыдущий запрос больше никому не нужен
	} else {
		v = &view{}
		g.views[key] = v
	}
	v.gen = g.seq
	v.cancel = cancel

	return ctx, Ticket{Key: key, Gen: g.seq}
}

// Current - true, если тикет все еще последний для своего view.
func (g *Generations) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.views[t.Key]
	return ok && v.gen == t.Gen
}

// Finish освобождает контекст запроса. Запись view удаляется, только если тикет последний.
func (g *Generations) Finish(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.views[t.Key]; ok && v.gen == t.Gen {
		v.cancel()
		delete(g.views, t.Key)
	}
}

// Inflight - количество view с незавершенными запросами.
func (g *Generations) Inflight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.views)
}
