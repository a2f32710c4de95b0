/*
Copyright 2024 Proofdesk Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package proofdesk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/proofdesk/proofdesk/config"
	"github.com/proofdesk/proofdesk/model"
)

// storeFallback writes result rows to the local data directory when the
// datasource is unavailable. The write itself is best-effort too; a failure
// is logged and the in-memory state stays authoritative either way.
func (s *Proofdesk) storeFallback(rows []*model.AuditRow) {
	dir, err := fallbackDir()
	if err != nil {
		logrus.WithError(err).Error("local fallback store unavailable")
		return
	}

	name := fmt.Sprintf("results_%s.json", time.Now().Format("20060102T150405"))
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		logrus.WithError(err).Error("failed to encode fallback result rows")
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		logrus.WithError(err).Error("failed to write fallback result rows")
		return
	}
	logrus.WithField("file", name).Info("result rows written to local fallback store")
}

// fallbackDir resolves and creates the local data directory.
func fallbackDir() (string, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return "", err
	}
	return cfg.DataDir, nil
}
