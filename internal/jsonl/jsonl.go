// Package jsonl reads and writes the portable export format: one JSON
// record per line, each wrapped in an envelope naming its type. Lists
// carry their categories embedded, so a file round-trips the full tree.
package jsonl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/schema"
)

// Record type names used in the envelope.
const (
	RecordList        = "list"
	RecordTask        = "task"
	RecordPreferences = "preferences"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Document is a fully decoded export file.
type Document struct {
	Lists       []model.List
	Tasks       []model.Task
	Preferences *model.Preferences
}

// Export writes the document as JSONL: lists first, then tasks, then the
// preference record, all in canonical order.
func Export(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)

	lists := model.CloneLists(doc.Lists)
	schema.SortLists(lists)
	for i := range lists {
		if err := writeRecord(enc, RecordList, lists[i]); err != nil {
			return err
		}
	}

	tasks := model.CloneTasks(doc.Tasks)
	schema.SortTasks(tasks)
	for i := range tasks {
		if err := writeRecord(enc, RecordTask, tasks[i]); err != nil {
			return err
		}
	}

	if doc.Preferences != nil {
		if err := writeRecord(enc, RecordPreferences, *doc.Preferences); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(enc *json.Encoder, typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", typ, err)
	}
	if err := enc.Encode(envelope{Type: typ, Data: raw}); err != nil {
		return fmt.Errorf("failed to write %s record: %w", typ, err)
	}
	return nil
}

// ExportFile writes the document to path atomically via a temp file.
func ExportFile(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := Export(file, doc); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Import parses a JSONL stream. Records may appear in any order; a second
// preferences record overrides the first.
func Import(r io.Reader) (Document, error) {
	var doc Document
	decoder := json.NewDecoder(r)
	lineNum := 0

	for {
		var env envelope
		if err := decoder.Decode(&env); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Document{}, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++

		switch env.Type {
		case RecordList:
			var list model.List
			if err := json.Unmarshal(env.Data, &list); err != nil {
				return Document{}, fmt.Errorf("invalid list record at line %d: %w", lineNum, err)
			}
			if list.ID == "" {
				return Document{}, fmt.Errorf("list record at line %d has no id", lineNum)
			}
			doc.Lists = append(doc.Lists, list)
		case RecordTask:
			var task model.Task
			if err := json.Unmarshal(env.Data, &task); err != nil {
				return Document{}, fmt.Errorf("invalid task record at line %d: %w", lineNum, err)
			}
			if task.ID == "" || task.ListID == "" {
				return Document{}, fmt.Errorf("task record at line %d is missing id or list_id", lineNum)
			}
			doc.Tasks = append(doc.Tasks, task)
		case RecordPreferences:
			var prefs model.Preferences
			if err := json.Unmarshal(env.Data, &prefs); err != nil {
				return Document{}, fmt.Errorf("invalid preferences record at line %d: %w", lineNum, err)
			}
			doc.Preferences = &prefs
		default:
			return Document{}, fmt.Errorf("unknown record type %q at line %d", env.Type, lineNum)
		}
	}

	if err := validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ImportFile parses the JSONL file at path.
func ImportFile(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()
	return Import(file)
}

// validate checks referential integrity so an import cannot smuggle
// orphans into the state tree.
func validate(doc Document) error {
	listIDs := make(map[string]bool, len(doc.Lists))
	for _, l := range doc.Lists {
		if listIDs[l.ID] {
			return fmt.Errorf("duplicate list id %s", l.ID)
		}
		listIDs[l.ID] = true
	}

	catLists := make(map[string]string)
	for _, l := range doc.Lists {
		for _, c := range l.Categories {
			if c.ListID != l.ID {
				return fmt.Errorf("category %s is embedded in list %s but claims list %s", c.ID, l.ID, c.ListID)
			}
			if _, dup := catLists[c.ID]; dup {
				return fmt.Errorf("duplicate category id %s", c.ID)
			}
			catLists[c.ID] = l.ID
		}
	}

	taskIDs := make(map[string]bool, len(doc.Tasks))
	for _, t := range doc.Tasks {
		if taskIDs[t.ID] {
			return fmt.Errorf("duplicate task id %s", t.ID)
		}
		taskIDs[t.ID] = true
		if !listIDs[t.ListID] {
			return fmt.Errorf("task %s references unknown list %s", t.ID, t.ListID)
		}
		if t.CategoryID != nil {
			owner, ok := catLists[*t.CategoryID]
			if !ok {
				return fmt.Errorf("task %s references unknown category %s", t.ID, *t.CategoryID)
			}
			if owner != t.ListID {
				return fmt.Errorf("task %s uses category %s from another list", t.ID, *t.CategoryID)
			}
		}
	}

	for _, t := range doc.Tasks {
		if t.ParentTaskID == nil {
			continue
		}
		if !taskIDs[*t.ParentTaskID] {
			return fmt.Errorf("task %s references unknown parent %s", t.ID, *t.ParentTaskID)
		}
	}
	return nil
}
