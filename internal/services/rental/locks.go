package rental

import "sync"

// carLocks выдает мьютекс на каждый автомобиль. Все операции, меняющие
// доступность автомобиля и статус его аренды, выполняются под этим
// мьютексом, так что проверка и изменение происходят атомарно.
type carLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCarLocks() *carLocks {
	return &carLocks{locks: make(map[string]*sync.Mutex)}
}

// get возвращает мьютекс автомобиля, создавая его при первом обращении.
// Мьютексы не удаляются: автомобилей конечное число, а удаление под
// конкурентным доступом того не стоит.
func (c *carLocks) get(carID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[carID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[carID] = lock
	}
	return lock
}
