package compare

import (
	"encoding/json"
	"time"

	"github.com/tsdiag/pcrdelta/configure"
	"github.com/tsdiag/pcrdelta/utils/uid"

	log "github.com/sirupsen/logrus"
)

// StatusKey is where the latest session snapshot lives in the stats store.
const StatusKey = "pcrdelta/status"

const publishInterval = time.Second

// Session is the single-shot owner of one comparison run: it builds the
// core, starts it, publishes status snapshots while it runs and joins it.
type Session struct {
	id          string
	args        *Args
	core        *Core
	success     bool
	stopPublish chan struct{}
}

func NewSession(args *Args) (*Session, error) {
	if err := args.EnforceDefaults(); err != nil {
		return nil, err
	}
	return &Session{
		id:          uid.NewId(),
		args:        args,
		core:        NewCore(args),
		stopPublish: make(chan struct{}),
	}, nil
}

func (s *Session) Id() string {
	return s.id
}

// Success reports whether the session terminated cleanly. No records is a
// valid outcome.
func (s *Session) Success() bool {
	return s.success
}

// Start opens the sink and launches the input executors.
func (s *Session) Start() error {
	log.Infof("session %s starting", s.id)
	if err := s.core.Start(); err != nil {
		return err
	}
	go s.publishLoop()
	return nil
}

// Stop requests a soft termination: executors observe it between source
// sessions or when their blocked receive is woken.
func (s *Session) Stop() {
	s.core.Stop(true)
}

// WaitForTermination joins the input executors and publishes the final
// snapshot.
func (s *Session) WaitForTermination() {
	s.core.WaitForTermination()
	close(s.stopPublish)
	s.publish()
	s.success = true
	log.Infof("session %s terminated", s.id)
}

// Status returns the live snapshot.
func (s *Session) Status() Status {
	return s.core.stat.snapshot(s.id)
}

func (s *Session) publishLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("status publisher panic: ", r)
		}
	}()
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.publish()
		case <-s.stopPublish:
			return
		}
	}
}

func (s *Session) publish() {
	b, err := json.Marshal(s.Status())
	if err != nil {
		log.Error("status marshal: ", err)
		return
	}
	configure.Stats.SetSnapshot(StatusKey, string(b))
}
