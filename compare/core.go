package compare

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/tsdiag/pcrdelta/container/ts"

	log "github.com/sirupsen/logrus"
)

// pcrSample pairs a PCR with the input timestamp of the packet that
// carried it, both in 27 MHz ticks.
type pcrSample struct {
	pcr       uint64
	timestamp uint64
}

// Core owns the two per-input PCR queues and the CSV sink. Input executors
// feed it packet batches through IngestBatch; each PCR push triggers at
// most one paired-front comparison.
type Core struct {
	args   *Args
	inputs []*InputExecutor

	// lock protects the queues and the output writer.
	lock       sync.Mutex
	pcrs       [inputCount][]pcrSample
	out        io.Writer
	outputFile *os.File

	stat *status
}

func NewCore(args *Args) *Core {
	c := &Core{
		args: args,
		stat: newStatus(),
	}
	for i, src := range args.Inputs {
		c.inputs = append(c.inputs, newInputExecutor(c, src, i))
	}
	return c
}

// Start opens the output sink, writes the CSV header and starts the input
// executors. A partial start is rolled back by terminating the executors
// that did start.
func (c *Core) Start() error {
	if c.args.OutputFile == "" {
		c.out = os.Stderr
	} else {
		f, err := os.Create(c.args.OutputFile)
		if err != nil {
			return fmt.Errorf("output file %s: %v", c.args.OutputFile, err)
		}
		c.outputFile = f
		c.out = f
	}

	c.csvHeader()

	for _, in := range c.inputs {
		if !in.Start() {
			c.Stop(false)
			return fmt.Errorf("input %d (%s) failed to start", in.PluginIndex(), in.src.Name())
		}
	}
	return nil
}

// Stop requests termination of every input executor.
func (c *Core) Stop(success bool) {
	if !success {
		log.Debug("stopping on error")
	}
	for _, in := range c.inputs {
		in.Terminate()
	}
}

// WaitForTermination joins every input executor, then closes the sink.
func (c *Core) WaitForTermination() {
	for _, in := range c.inputs {
		in.WaitForTermination()
	}
	if c.outputFile != nil {
		if err := c.outputFile.Close(); err != nil {
			log.Error("closing output file: ", err)
		}
		c.outputFile = nil
	}
}

// IngestBatch is called from the input executor goroutines. The lock is
// taken per packet, not per batch, to keep the critical section one push
// plus one comparison.
func (c *Core) IngestBatch(pkts []ts.Packet, metadata []ts.Metadata, pluginIndex int) {
	for i := range pkts {
		c.lock.Lock()
		pcr := pkts[i].PCR()
		if pcr != ts.InvalidPCR {
			c.pcrs[pluginIndex] = append(c.pcrs[pluginIndex], pcrSample{pcr: pcr, timestamp: metadata[i].InputTimestamp})
			c.stat.addPcr(pluginIndex)
			c.comparePCR()
		}
		c.lock.Unlock()
	}
}

func (c *Core) csvHeader() {
	sep := c.args.CSVSeparator
	fmt.Fprintf(c.out, "PCR1%sPCR2%sPCR Delta%sPCR Delta (ms)%sSync\n", sep, sep, sep, sep)
}

// comparePCR inspects the front sample of each queue. Called with the lock
// held, immediately after each push. Fronts are either both popped (a
// record was written) or both queues are cleared; one queue never loses
// samples while the other keeps its front.
func (c *Core) comparePCR() {
	q1 := c.pcrs[0]
	q2 := c.pcrs[1]

	if len(q1) > 0 && len(q2) > 0 {
		s1 := q1[0]
		s2 := q2[0]

		// Make sure the two fronts were captured in the same real-time
		// interval before trusting their delta.
		if c.outOfSync(s1, s2) {
			c.resetQueues()
			return
		}

		pcr1 := int64(s1.pcr)
		pcr2 := int64(s2.pcr)
		pcrDelta := pcr1 - pcr2
		if pcrDelta < 0 {
			pcrDelta = -pcrDelta
		}
		pcrDeltaInMs := ts.TicksToMs(uint64(pcrDelta))
		inSync := pcrDeltaInMs <= float64(c.args.LatencyMs)

		sep := c.args.CSVSeparator
		fmt.Fprintf(c.out, "%d%s%d%s%d%s%s%s%t\n",
			pcr1, sep, pcr2, sep, pcrDelta, sep,
			strconv.FormatFloat(pcrDeltaInMs, 'g', -1, 64), sep, inSync)
		c.stat.record(pcrDeltaInMs, inSync)

		c.pcrs[0] = q1[1:]
		c.pcrs[1] = q2[1:]
	} else if len(q1) > c.args.Watermark || len(q2) > c.args.Watermark {
		// One input stalled, do not let the other queue grow without bound.
		c.resetQueues()
	}
}

// outOfSync reports whether the two samples' input timestamps are further
// apart than the alignment threshold.
func (c *Core) outOfSync(s1, s2 pcrSample) bool {
	diff := int64(s1.timestamp) - int64(s2.timestamp)
	if diff < 0 {
		diff = -diff
	}
	return ts.TicksToMs(uint64(diff)) > float64(c.args.AlignMs)
}

// resetQueues discards both PCR histories entirely.
func (c *Core) resetQueues() {
	log.Debugf("resetting PCR queues (len %d/%d)", len(c.pcrs[0]), len(c.pcrs[1]))
	c.pcrs[0] = nil
	c.pcrs[1] = nil
	c.stat.reset()
}
