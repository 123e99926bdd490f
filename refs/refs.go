// Package refs hands out integer ids for objects held on behalf of remote
// callers, and releases the objects when callers stop touching them.
package refs

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"
)

type Id int

var ErrBadRef = errors.New("bad ref")

type ref struct {
	value  interface{}
	closer func() error
	timer  *time.Timer
}

type Manager struct {
	// Idle time after which a ref is released. Zero means never.
	Expiry time.Duration

	mu      sync.Mutex
	refs    map[Id]*ref
	nextRef Id
}

func (me *Manager) expiry() time.Duration {
	if me.Expiry == 0 {
		return math.MaxInt64
	}
	return me.Expiry
}

func (me *Manager) Len() int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return len(me.refs)
}

func (me *Manager) GetAll() (ret map[Id]interface{}) {
	me.mu.Lock()
	defer me.mu.Unlock()
	ret = make(map[Id]interface{}, len(me.refs))
	for k, v := range me.refs {
		ret[k] = v.value
	}
	return
}

func (me *Manager) New(obj interface{}, closer func() error) Id {
	me.mu.Lock()
	defer me.mu.Unlock()
	if me.refs == nil {
		me.refs = make(map[Id]*ref)
	}
	for {
		if _, ok := me.refs[me.nextRef]; !ok {
			break
		}
		me.nextRef++
	}
	ret := me.nextRef
	me.nextRef++
	me.refs[ret] = &ref{
		value:  obj,
		closer: closer,
		timer:  time.AfterFunc(me.expiry(), me.expire(ret)),
	}
	return ret
}

func (me *Manager) expire(id Id) func() {
	return func() {
		me.mu.Lock()
		r, ok := me.refs[id]
		if ok {
			delete(me.refs, id)
		}
		me.mu.Unlock()
		if !ok {
			return
		}
		log.Printf("expiring %d: %T", id, r.value)
		if err := r.closer(); err != nil {
			log.Print(err)
		}
	}
}

// Get returns the object for id, and restarts its expiry.
func (me *Manager) Get(id Id) (interface{}, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	r, ok := me.refs[id]
	if !ok {
		return nil, ErrBadRef
	}
	r.timer.Reset(me.expiry())
	return r.value, nil
}

// Pop forgets id without releasing its object, which becomes the caller's.
func (me *Manager) Pop(id Id) (interface{}, error) {
	me.mu.Lock()
	defer me.mu.Unlock()
	r, ok := me.refs[id]
	if !ok {
		return nil, ErrBadRef
	}
	r.timer.Stop()
	delete(me.refs, id)
	return r.value, nil
}

func (me *Manager) Release(id Id) error {
	me.mu.Lock()
	r, ok := me.refs[id]
	if ok {
		r.timer.Stop()
		delete(me.refs, id)
	}
	me.mu.Unlock()
	if !ok {
		return ErrBadRef
	}
	return r.closer()
}
