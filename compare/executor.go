package compare

import (
	"fmt"
	"sync"
	"time"

	"github.com/tsdiag/pcrdelta/av"
	"github.com/tsdiag/pcrdelta/container/ts"

	log "github.com/sirupsen/logrus"
)

// InputExecutor drives one source on a dedicated goroutine. It pulls
// packet batches into a private bounded ring buffer with a drop-oldest
// backpressure policy, stamps packets the source did not timestamp, and
// hands each batch to the core.
type InputExecutor struct {
	core *Core
	src  av.Source
	info av.Info

	buffer          []ts.Packet
	metadata        []ts.Metadata
	maxInputPackets int

	// lock protects the ring indices and the termination flag.
	lock      sync.Mutex
	outFirst  int
	outCount  int
	terminate bool

	started   bool
	startTime time.Time
	done      chan struct{}
}

func newInputExecutor(core *Core, src av.Source, index int) *InputExecutor {
	e := &InputExecutor{
		core:            core,
		src:             src,
		info:            av.Info{Index: index, URL: src.Name()},
		buffer:          make([]ts.Packet, core.args.BufferPackets),
		metadata:        make([]ts.Metadata, core.args.BufferPackets),
		maxInputPackets: core.args.MaxInputPackets,
		done:            make(chan struct{}),
	}
	core.stat.setInputURL(index, src.Name())
	return e
}

// PluginIndex returns the input index fixed at construction.
func (e *InputExecutor) PluginIndex() int {
	return e.info.Index
}

// Start opens the first source session and launches the executor
// goroutine. Returns false when the source refuses to open. Calling Start
// on a started executor is a no-op.
func (e *InputExecutor) Start() bool {
	if e.started {
		return true
	}
	if err := e.src.Open(); err != nil {
		log.Errorf("%v start failed: %v", e.info, err)
		close(e.done)
		return false
	}
	e.started = true
	e.startTime = time.Now()
	go e.run()
	return true
}

// Terminate sets the termination flag and closes the source to wake a
// blocked receive.
func (e *InputExecutor) Terminate() {
	e.lock.Lock()
	if e.terminate {
		e.lock.Unlock()
		return
	}
	e.terminate = true
	e.lock.Unlock()
	log.Debugf("%v received terminate request", e.info)
	e.src.Close()
}

// WaitForTermination blocks the caller until the executor goroutine has
// exited. Safe to call on an executor that never started.
func (e *InputExecutor) WaitForTermination() {
	if !e.started {
		return
	}
	<-e.done
}

func (e *InputExecutor) terminated() bool {
	e.lock.Lock()
	t := e.terminate
	e.lock.Unlock()
	return t
}

func (e *InputExecutor) run() {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%v executor panic: %v", e.info, r)
		}
	}()
	log.Debugf("%v input thread started", e.info)

	// Each iteration is one input session. The first session was opened by
	// Start. Only cyclic sources get another one.
	for {
		e.session()
		e.src.Close()
		if e.terminated() || !e.src.Cyclic() {
			break
		}
		log.Debugf("%v starting input session", e.info)
		if err := e.src.Open(); err != nil {
			log.Errorf("%v start failed: %v", e.info, err)
			break
		}
	}

	log.Debugf("%v input thread exited", e.info)
}

// session receives batches until end of input or a source fault.
func (e *InputExecutor) session() {
	capacity := len(e.buffer)

	for {
		e.lock.Lock()
		if e.terminate {
			e.lock.Unlock()
			return
		}

		// Drop-oldest backpressure: when the ring is full, advance the
		// head by one receive window instead of blocking the source.
		if e.outCount == capacity {
			n := e.maxInputPackets
			if n > capacity-e.outFirst {
				n = capacity - e.outFirst
			}
			e.outFirst = (e.outFirst + n) % capacity
			e.outCount -= n
			e.core.stat.addDrops(e.info.Index, n)
			log.Debugf("%v buffer full, dropped %d oldest packets", e.info, n)
		}

		if e.outFirst < 0 || e.outFirst >= capacity || e.outCount < 0 || e.outCount > capacity {
			panic(fmt.Sprintf("ring buffer corrupted: outFirst=%d outCount=%d capacity=%d", e.outFirst, e.outCount, capacity))
		}

		// Contiguous receive window.
		inFirst := (e.outFirst + e.outCount) % capacity
		inCount := e.maxInputPackets
		if inCount > capacity-e.outCount {
			inCount = capacity - e.outCount
		}
		if inCount > capacity-inFirst {
			inCount = capacity - inFirst
		}
		e.lock.Unlock()

		for i := inFirst; i < inFirst+inCount; i++ {
			e.metadata[i].Reset()
		}

		n, err := e.src.Receive(e.buffer[inFirst:inFirst+inCount], e.metadata[inFirst:inFirst+inCount])
		if err != nil {
			// Fatal to this input only. The other executor keeps running
			// and comparison halts once this queue stops growing.
			log.Errorf("%v receive: %v", e.info, err)
			return
		}
		if n == 0 {
			log.Debugf("%v received end of input", e.info)
			return
		}

		// Sources without capture timestamps get the batch stamped from
		// the executor's monotonic clock baseline.
		if !e.metadata[inFirst].HasTimestamp {
			ticks := ts.DurationToTicks(time.Since(e.startTime))
			for i := inFirst; i < inFirst+n; i++ {
				e.metadata[i].SetInputTimestamp(ticks)
			}
		}

		e.lock.Lock()
		e.outCount += n
		e.lock.Unlock()

		e.core.stat.addPackets(e.info.Index, n)
		e.core.IngestBatch(e.buffer[inFirst:inFirst+n], e.metadata[inFirst:inFirst+n], e.info.Index)
	}
}
