package transport

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ims-sentinel/sentineld/internal/logx"
)

// CertWatcher watches the directory holding the server certificate and
// key for replacement (e.g. by an external ACME client or operator cron
// job) and hot-swaps Gate's serving certificate in place. It does not
// watch the CA trust anchor or the operational config file — only the
// server leaf certificate/key pair, a distinct concern from the
// hot-reload the spec explicitly excludes for operational configuration.
type CertWatcher struct {
	gate     *Gate
	certPath string
	keyPath  string
	log      *logx.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCertWatcher starts watching the directories containing certPath
// and keyPath. Directories, not the files themselves, are watched
// because certificate rotation tools commonly replace a file via
// rename rather than in-place write, which does not fire events on a
// watch held against the old inode.
func NewCertWatcher(gate *Gate, certPath, keyPath string, log *logx.Logger) (*CertWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := map[string]struct{}{
		filepath.Dir(certPath): {},
		filepath.Dir(keyPath):  {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}

	cw := &CertWatcher{
		gate:     gate,
		certPath: certPath,
		keyPath:  keyPath,
		log:      log,
		watcher:  w,
		done:     make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

func (cw *CertWatcher) run() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warnf("transport: certificate watcher error: %v", err)
		case <-cw.done:
			return
		}
	}
}

func (cw *CertWatcher) handleEvent(event fsnotify.Event) {
	if event.Name != cw.certPath && event.Name != cw.keyPath {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if err := cw.gate.ReloadCertificate(cw.certPath, cw.keyPath); err != nil {
		cw.log.Warnf("transport: certificate reload skipped, keeping previous certificate: %v", err)
	}
}

// Close stops the watcher.
func (cw *CertWatcher) Close() error {
	close(cw.done)
	return cw.watcher.Close()
}
