package stream

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// terminationMarker is appended to a session's log buffer, followed by the
// exit code, as the final two lines before the session is removed.
const terminationMarker = "--- stream ended ---"

// Supervisor is the only component that spawns or signals restreaming
// processes. It validates start requests against the registry and the media
// root, wires process output into the session's log buffer and reaps exits.
//
// Spawn policy: stream-copy ("-c:v copy -c:a copy"). This keeps CPU use near
// zero and latency minimal, at the cost of requiring sources the destination
// can ingest as-is (H.264/AAC for RTMP). An incompatible source fails fast
// and the ffmpeg error lands in the session log.
type Supervisor struct {
	registry   *Registry
	mediaRoot  string
	ffmpegPath string
	logLines   int
}

func NewSupervisor(registry *Registry, mediaRoot, ffmpegPath string, logLines int) *Supervisor {
	return &Supervisor{
		registry:   registry,
		mediaRoot:  mediaRoot,
		ffmpegPath: ffmpegPath,
		logLines:   logLines,
	}
}

// Start validates the request, spawns the restream process and registers the
// session. It returns as soon as the process is started and inserted; exit
// handling and log capture run in the background.
func (sv *Supervisor) Start(req StartRequest) error {
	if req.DestinationURL == "" {
		return ErrInvalidDestination
	}

	fileName := filepath.Base(req.FileName)
	sourcePath := filepath.Join(sv.mediaRoot, fileName)
	info, err := os.Stat(sourcePath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return errors.Wrapf(ErrFileNotFound, "%s", fileName)
	}

	// Friendly pre-check; Insert below is the authoritative one.
	if sv.registry.Get(req.StreamKey) != nil {
		return ErrAlreadyStreaming
	}

	destination := strings.TrimSuffix(req.DestinationURL, "/") + "/" + req.StreamKey
	args := buildArgs(sourcePath, destination, req.Loop)

	cmd := exec.Command(sv.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "creating stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "creating stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting stream process")
	}

	sess := &Session{
		StreamKey:  req.StreamKey,
		SourceFile: fileName,
		SourcePath: sourcePath,
		Title:      req.Title,
		Channel:    req.Channel,
		Emoji:      req.Emoji,
		Loop:       req.Loop,
		StartedAt:  time.Now(),
		cmd:        cmd,
		logs:       NewLogBuffer(sv.logLines),
	}

	if !sv.registry.Insert(sess) {
		// Lost a race with a concurrent start for the same key. Kill the
		// orphan before it ever touches the destination for long.
		cmd.Process.Kill()
		cmd.Wait()
		return ErrAlreadyStreaming
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go sv.capture(stdout, sess.logs, &readers)
	go sv.capture(stderr, sess.logs, &readers)
	go sv.reap(sess, &readers)

	log.Printf("stream started: channel=%s file=%s key=%s loop=%v",
		sess.Channel, sess.SourceFile, maskKey(sess.StreamKey), sess.Loop)
	return nil
}

// Stop signals the session's process. Registry removal is left to the exit
// reaper, which fires once the process is gone.
func (sv *Supervisor) Stop(streamKey string) error {
	sess := sv.registry.Get(streamKey)
	if sess == nil {
		return ErrStreamNotFound
	}

	if err := sess.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already gone; the reaper will clean up.
		log.Printf("stream stop: signal failed for key=%s: %v", maskKey(streamKey), err)
	}
	log.Printf("stream stopping: channel=%s key=%s", sess.Channel, maskKey(streamKey))
	return nil
}

// StopAll signals every live session from a snapshot and returns how many
// were signaled. It does not wait for the processes to exit.
func (sv *Supervisor) StopAll() int {
	sessions := sv.registry.List()
	for _, sess := range sessions {
		if err := sess.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			log.Printf("stop-all: signal failed for key=%s: %v", maskKey(sess.StreamKey), err)
		}
	}
	if len(sessions) > 0 {
		log.Printf("stop-all: signaled %d stream(s)", len(sessions))
	}
	return len(sessions)
}

// Logs returns a snapshot of the session's log buffer. An unknown or already
// finished key yields an empty slice, never an error.
func (sv *Supervisor) Logs(streamKey string) []string {
	sess := sv.registry.Get(streamKey)
	if sess == nil {
		return []string{}
	}
	return sess.logs.Lines()
}

// Status projects the registry for polling clients, ordered by start time.
func (sv *Supervisor) Status() []Status {
	sessions := sv.registry.List()
	out := make([]Status, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.status())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StreamKey < out[j].StreamKey
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// capture copies one output stream of the process into the log buffer,
// preserving the order lines were emitted on that stream.
func (sv *Supervisor) capture(r io.Reader, logs *LogBuffer, readers *sync.WaitGroup) {
	defer readers.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		logs.Append(scanner.Text())
	}
}

// reap waits for the process to exit, appends the termination marker and
// exit code as the final two log lines, then removes the session. This is
// the only removal path, so crashes are self-healing: the key simply
// disappears from status listings.
func (sv *Supervisor) reap(sess *Session, readers *sync.WaitGroup) {
	readers.Wait()
	err := sess.cmd.Wait()

	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	sess.logs.Append(terminationMarker)
	sess.logs.Append(fmt.Sprintf("exit code %d", exitCode))
	sv.registry.Remove(sess.StreamKey)

	log.Printf("stream ended: channel=%s key=%s exit=%d uptime=%s",
		sess.Channel, maskKey(sess.StreamKey), exitCode, time.Since(sess.StartedAt).Round(time.Second))
}

// buildArgs assembles the ffmpeg argument list for a session. "-re" reads
// the input at native rate; with loop enabled the source is restarted
// indefinitely.
func buildArgs(sourcePath, destination string, loop bool) []string {
	args := []string{"-re"}
	if loop {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args,
		"-i", sourcePath,
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "flv",
		destination,
	)
	return args
}

// maskKey hides most of a stream key so it never lands in server logs or
// user-facing errors in full.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
