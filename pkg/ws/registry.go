package ws

// registry хранит активные каналы в слотах с поколениями. Connection кодирует
// пару (поколение, слот); удаление увеличивает поколение слота, поэтому
// устаревшие идентификаторы и запоздавшие завершения операций не находят канал.
type registry struct {
	slots []registrySlot
	free  []uint32
	live  int
}

type registrySlot struct {
	generation uint32
	ch         *channel
}

func newRegistry() *registry {
	return &registry{}
}

func (r *registry) insert(ch *channel) Connection {
	var index uint32

	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, registrySlot{generation: 1})
	}

	slot := &r.slots[index]
	slot.ch = ch
	r.live++

	return newConnection(index, slot.generation)
}

func (r *registry) lookup(c Connection) (*channel, bool) {
	index := c.index()
	if int(index) >= len(r.slots) {
		return nil, false
	}

	slot := r.slots[index]
	if slot.ch == nil || slot.generation != c.generation() {
		return nil, false
	}

	return slot.ch, true
}

func (r *registry) remove(c Connection) (*channel, bool) {
	ch, ok := r.lookup(c)
	if !ok {
		return nil, false
	}

	slot := &r.slots[c.index()]
	slot.ch = nil

	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}

	r.free = append(r.free, c.index())
	r.live--

	return ch, true
}

func (r *registry) len() int {
	return r.live
}

// removeAll удаляет все каналы, вызывая fn для каждого уже после удаления.
func (r *registry) removeAll(fn func(Connection, *channel)) {
	for i := range r.slots {
		slot := r.slots[i]
		if slot.ch == nil {
			continue
		}

		c := newConnection(uint32(i), slot.generation)
		r.remove(c)
		fn(c, slot.ch)
	}
}
