package interview

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaz8081/mock-interviewer/internal/extract"
	"github.com/chaz8081/mock-interviewer/internal/llm"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// ErrStopped is returned by Dispatch once the dispatcher has shut down.
var ErrStopped = errors.New("interview: dispatcher stopped")

// Kind names a user action.
type Kind string

const (
	KindSnapshot       Kind = "snapshot"
	KindSelectDomain   Kind = "select_domain"
	KindUploadResume   Kind = "upload_resume"
	KindBeginInterview Kind = "begin_interview"
	KindRecordAnswer   Kind = "record_answer"
	KindEndInterview   Kind = "end_interview"
	KindNewInterview   Kind = "new_interview"
	KindDownloadReport Kind = "download_report"
)

// Command is one user action. Only the fields its Kind uses are read.
type Command struct {
	Kind     Kind
	Domain   types.Domain
	Filename string
	PDF      []byte
}

// Result is the outcome of a Command.
type Result struct {
	Snapshot Snapshot
	// Report is set by a successful KindDownloadReport.
	Report *report.File
	// Err is the adapter failure or bad input, if any. It is also
	// reported as an error notice in Snapshot.
	Err error
}

// Progress describes the recording in flight, if any.
type Progress struct {
	Recording bool          `json:"recording"`
	Elapsed   time.Duration `json:"elapsed"`
	Total     time.Duration `json:"total"`
}

// Fraction is Elapsed/Total clamped to [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Elapsed) / float64(p.Total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

type request struct {
	ctx   context.Context
	cmd   Command
	reply chan Result
}

// Dispatcher owns a Session and applies Commands to it one at a time, in
// arrival order, on the goroutine running Run.
type Dispatcher struct {
	ctrl    *Controller
	session *Session
	log     zerolog.Logger

	queue    chan request
	done     chan struct{}
	progress atomic.Pointer[Progress]
}

// NewDispatcher creates a Dispatcher for session.
func NewDispatcher(ctrl *Controller, session *Session, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		ctrl:    ctrl,
		session: session,
		log:     log.With().Str("component", "dispatcher").Str("session_id", session.ID).Logger(),
		queue:   make(chan request),
		done:    make(chan struct{}),
	}
	d.progress.Store(&Progress{})
	return d
}

// Run processes commands until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	d.log.Debug().Msg("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Debug().Msg("dispatcher stopped")
			return nil
		case req := <-d.queue:
			req.reply <- d.handle(req.ctx, req.cmd)
		}
	}
}

// Dispatch queues cmd and waits for its result. The returned error is
// non-nil only if the command could not be delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan Result, 1)}
	select {
	case d.queue <- req:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-d.done:
		return Result{}, ErrStopped
	}
	return <-req.reply, nil
}

// Progress returns the current recording progress without queueing.
func (d *Dispatcher) Progress() Progress {
	return *d.progress.Load()
}

func (d *Dispatcher) handle(ctx context.Context, cmd Command) Result {
	s := d.session
	s.clearNotices()
	start := time.Now()

	var (
		res Result
		err error
	)
	switch cmd.Kind {
	case KindSnapshot:
	case KindSelectDomain:
		err = d.ctrl.SelectDomain(s, cmd.Domain)
	case KindUploadResume:
		err = d.ctrl.UploadResume(ctx, s, cmd.Filename, cmd.PDF)
	case KindBeginInterview:
		err = d.ctrl.BeginInterview(ctx, s)
	case KindRecordAnswer:
		err = d.ctrl.RecordAnswer(ctx, s, d.publishProgress)
		d.progress.Store(&Progress{})
	case KindEndInterview:
		err = d.ctrl.EndInterview(ctx, s)
	case KindNewInterview:
		d.ctrl.NewInterview(s)
	case KindDownloadReport:
		res.Report, err = d.ctrl.DownloadReport(s)
	default:
		err = &UnknownCommandError{Kind: cmd.Kind}
	}

	if err != nil {
		s.notify(NoticeError, userMessage(err))
		d.log.Error().Err(err).Str("command", string(cmd.Kind)).Dur("took", time.Since(start)).Msg("command failed")
	} else if cmd.Kind != KindSnapshot {
		d.log.Info().Str("command", string(cmd.Kind)).Str("state", string(s.State())).Dur("took", time.Since(start)).Msg("command handled")
	}

	res.Snapshot = s.Snapshot()
	res.Err = err
	return res
}

func (d *Dispatcher) publishProgress(elapsed, total time.Duration) {
	d.progress.Store(&Progress{Recording: true, Elapsed: elapsed, Total: total})
}

// UnknownCommandError reports a Command with an unrecognised Kind.
type UnknownCommandError struct {
	Kind Kind
}

func (e *UnknownCommandError) Error() string {
	return "interview: unknown command " + string(e.Kind)
}

// userMessage phrases err for display.
func userMessage(err error) string {
	var (
		eerr *extract.ExtractionError
		terr *transcribe.TranscriptionError
		gerr *llm.GenerationError
		rerr *report.RenderError
	)
	switch {
	case errors.As(err, &eerr):
		return "Could not read the resume: " + eerr.Error()
	case errors.As(err, &terr):
		return "Could not process your answer: " + terr.Error()
	case errors.As(err, &gerr):
		return "The interviewer is unavailable: " + gerr.Error()
	case errors.As(err, &rerr):
		return "Could not create the report: " + rerr.Error()
	case errors.Is(err, ErrUnknownDomain):
		return "Please choose one of the listed domains."
	default:
		return "Error: " + err.Error()
	}
}
