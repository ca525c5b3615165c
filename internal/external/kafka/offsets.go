package futurecash

import (
	"errors"
	"sync"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/segmentio/kafka-go"
)

// Колбэк обработан окончательно: повторная доставка результат не изменит.
// Сбой хранилища или отмена контекста - offset не фиксируется.
func Settled(err error) bool {
	return err == nil ||
		errors.Is(err, model.ErrBadRequest) ||
		errors.Is(err, model.ErrInvalidCallback) ||
		errors.Is(err, model.ErrNotFound)
}

type tracked struct {
	msg  kafka.Message
	done bool
}

// Фиксация offset по порядку внутри партиции. Колбэки обрабатываются
// параллельно, offset сообщения фиксируется только после всех предыдущих.
// Сообщение с ошибкой останавливает партицию до перезапуска.
type OffsetTracker struct {
	mu      sync.Mutex
	pending map[int][]*tracked
	failed  map[int]bool
}

func NewOffsetTracker() *OffsetTracker {
	return &OffsetTracker{
		pending: make(map[int][]*tracked),
		failed:  make(map[int]bool),
	}
}

// вызывается в порядке чтения
func (t *OffsetTracker) Add(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[msg.Partition] = append(t.pending[msg.Partition], &tracked{msg: msg})
}

// Отметка обработки. Возвращает сообщение, до которого можно фиксировать offset.
func (t *OffsetTracker) Done(msg kafka.Message, ok bool) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := msg.Partition
	if !ok {
		t.failed[p] = true
		return kafka.Message{}, false
	}
	queue := t.pending[p]
	for _, item := range queue {
		if item.msg.Offset == msg.Offset {
			item.done = true
			break
		}
	}
	if t.failed[p] {
		return kafka.Message{}, false
	}

	var commit kafka.Message
	advanced := false
	for len(queue) > 0 && queue[0].done {
		commit = queue[0].msg
		queue = queue[1:]
		advanced = true
	}
	t.pending[p] = queue
	return commit, advanced
}
