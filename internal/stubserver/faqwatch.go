// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// faqReloadDebounce coalesces the bursts of events one editor save causes.
const faqReloadDebounce = 200 * time.Millisecond

// LoadMatcher reads an FAQ document from path.
func LoadMatcher(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faqs: %w", err)
	}
	return NewMatcher(data)
}

// WatchFAQ reloads the FAQ file whenever it changes, until ctx is done. A
// file that fails to parse is logged and the previous FAQs stay in use. It
// returns immediately when the server was not configured with an FAQ file.
//
// The directory is watched rather than the file, so saves that replace the
// file (write to temp, rename) are seen too.
func (s *Server) WatchFAQ(ctx context.Context) error {
	if s.faqPath == "" {
		return nil
	}
	path, err := filepath.Abs(s.faqPath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch faqs: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch faqs: %w", err)
	}

	log := s.log.WithField("faq_path", path)
	log.Info("watching FAQ file")

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(faqReloadDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(faqReloadDebounce)
			}

		case <-reload:
			m, err := LoadMatcher(path)
			if err != nil {
				log.WithError(err).Warn("FAQ reload failed, keeping previous FAQs")
				continue
			}
			s.matcher.Store(m)
			log.WithField("faqs", m.Len()).Info("FAQs reloaded")

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("FAQ watcher error")
		}
	}
}
