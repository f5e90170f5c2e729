// Copyright 2025 The Promptvault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// CursorState is the persisted resume position of a backfill run.
// TotalProcessed counts valid records across all runs, not just the
// current one.
type CursorState struct {
	Cursor         string `json:"cursor"`
	TotalProcessed int    `json:"total_processed"`
}

// LoadCursor reads the saved state from path. A missing or unreadable
// file yields the zero state so a fresh backfill starts from the top of
// the stream.
func LoadCursor(path string, logger *slog.Logger) CursorState {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read cursor state, starting fresh", "path", path, "err", err)
		}
		return CursorState{}
	}

	var state CursorState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("corrupt cursor state, starting fresh", "path", path, "err", err)
		return CursorState{}
	}
	return state
}

// SaveCursor writes the state to path atomically. The temp file is
// created in the same directory so the rename never crosses filesystems.
func SaveCursor(path string, state CursorState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
