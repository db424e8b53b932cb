package zwpersist

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the persisted-state file's path for external edits - a
// companion tool rewriting the file out of band - and calls onChange,
// rather than polling with a timer, grounded on the fsnotify.NewWatcher/Add/
// Events loop the teacher's `dittofs logs -f` command uses to tail a file.
// zwdriver does not create a Watcher; what a fired onChange means is up to
// whoever calls NewWatcher.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(error)
	done     chan struct{}
}

// NewWatcher starts watching path. onChange is called (from the watcher's
// own goroutine) on every Write or Create event for path; a non-nil error
// means the fsnotify watcher itself failed and no further events will
// arrive.
func NewWatcher(path string, onChange func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("zwpersist: creating watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("zwpersist: watching %s: %w", path, err)
	}

	w := &Watcher{fsw: fsw, onChange: onChange, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.onChange(nil)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onChange(err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
