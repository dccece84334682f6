// Package notify watches the credential file for changes so running
// processes pick up rotated keys without a restart.
package notify

import (
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// CredentialWatcher watches a dotenv file and dispatches a callback whenever
// it changes. The callback typically flushes the model client cache so the
// next resolution reconstructs clients with the rotated keys.
type CredentialWatcher struct {
	path     string
	callback func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewCredentialWatcher creates a watcher for the given dotenv file.
func NewCredentialWatcher(path string, callback func()) *CredentialWatcher {
	return &CredentialWatcher{
		path:     path,
		callback: callback,
		done:     make(chan struct{}),
	}
}

// Start begins watching. The parent directory is watched rather than the
// file itself because editors and secret managers replace the file on save.
// Call Stop() to clean up.
func (cw *CredentialWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(cw.path)); err != nil {
		_ = w.Close()
		return err
	}
	cw.watcher = w

	go cw.loop()
	log.Printf("notify: watching %s for credential changes", cw.path)
	return nil
}

// Stop shuts down the watcher.
func (cw *CredentialWatcher) Stop() {
	if cw.watcher != nil {
		_ = cw.watcher.Close()
	}
	<-cw.done
}

func (cw *CredentialWatcher) loop() {
	defer close(cw.done)
	target := filepath.Clean(cw.path)
	for {
		select {
		case evt, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				cw.reload()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

// reload re-applies the dotenv file to the process environment and fires the
// callback. Overload is used so rotated values replace stale ones.
func (cw *CredentialWatcher) reload() {
	if _, err := os.Stat(cw.path); err == nil {
		if err := godotenv.Overload(cw.path); err != nil {
			log.Printf("notify: failed to reload %s: %v", cw.path, err)
			return
		}
	}
	if cw.callback != nil {
		cw.callback()
	}
}
