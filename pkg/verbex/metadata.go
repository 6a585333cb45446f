package verbex

import (
	"context"
)

// Label and tag operations. Document-scoped metadata rides along with
// its document: removing the document removes it. Index-scoped
// metadata (the UpdateIndex*/GetIndex* methods) describes the index
// itself and survives Clear.

// AddDocumentLabel attaches a label to a document. Labels are
// lowercased; adding a present label is a no-op.
func (e *Engine) AddDocumentLabel(ctx context.Context, documentID, label string) error {
	return e.mutate(ctx, "add_label", func() error {
		return e.store.AddLabel(ctx, documentID, label)
	})
}

// AddDocumentLabels attaches several labels at once.
func (e *Engine) AddDocumentLabels(ctx context.Context, documentID string, labels []string) error {
	return e.mutate(ctx, "add_labels", func() error {
		return e.store.AddLabelsBatch(ctx, documentID, labels)
	})
}

// ReplaceDocumentLabels swaps a document's full label set.
func (e *Engine) ReplaceDocumentLabels(ctx context.Context, documentID string, labels []string) error {
	return e.mutate(ctx, "replace_labels", func() error {
		return e.store.ReplaceLabels(ctx, documentID, labels)
	})
}

// RemoveDocumentLabel detaches a label, reporting whether it was
// present.
func (e *Engine) RemoveDocumentLabel(ctx context.Context, documentID, label string) (bool, error) {
	var removed bool
	err := e.mutate(ctx, "remove_label", func() error {
		var opErr error
		removed, opErr = e.store.RemoveLabel(ctx, documentID, label)
		return opErr
	})
	return removed, err
}

// GetDocumentLabels returns a document's labels, sorted.
func (e *Engine) GetDocumentLabels(ctx context.Context, documentID string) ([]string, error) {
	release, err := e.guard("get_labels")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetLabels(ctx, documentID)
}

// GetDocumentsByLabel returns the ids of documents carrying the label.
func (e *Engine) GetDocumentsByLabel(ctx context.Context, label string) ([]string, error) {
	release, err := e.guard("get_documents_by_label")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetDocumentsByLabel(ctx, label)
}

// SetDocumentTag attaches or overwrites a key-value tag on a document.
func (e *Engine) SetDocumentTag(ctx context.Context, documentID, key, value string) error {
	return e.mutate(ctx, "set_tag", func() error {
		return e.store.SetTag(ctx, documentID, key, value)
	})
}

// SetDocumentTags sets several tags at once.
func (e *Engine) SetDocumentTags(ctx context.Context, documentID string, tags map[string]string) error {
	return e.mutate(ctx, "set_tags", func() error {
		return e.store.SetTagsBatch(ctx, documentID, tags)
	})
}

// ReplaceDocumentTags swaps a document's full tag set.
func (e *Engine) ReplaceDocumentTags(ctx context.Context, documentID string, tags map[string]string) error {
	return e.mutate(ctx, "replace_tags", func() error {
		return e.store.ReplaceTags(ctx, documentID, tags)
	})
}

// RemoveDocumentTag detaches a tag by key, reporting whether it was
// present.
func (e *Engine) RemoveDocumentTag(ctx context.Context, documentID, key string) (bool, error) {
	var removed bool
	err := e.mutate(ctx, "remove_tag", func() error {
		var opErr error
		removed, opErr = e.store.RemoveTag(ctx, documentID, key)
		return opErr
	})
	return removed, err
}

// GetDocumentTags returns a document's tags.
func (e *Engine) GetDocumentTags(ctx context.Context, documentID string) (map[string]string, error) {
	release, err := e.guard("get_tags")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetTags(ctx, documentID)
}

// GetDocumentsByTag returns the ids of documents carrying the exact
// key-value pair.
func (e *Engine) GetDocumentsByTag(ctx context.Context, key, value string) ([]string, error) {
	release, err := e.guard("get_documents_by_tag")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetDocumentsByTag(ctx, key, value)
}

// UpdateIndexLabels replaces the index-scoped label set.
func (e *Engine) UpdateIndexLabels(ctx context.Context, labels []string) error {
	return e.mutate(ctx, "update_index_labels", func() error {
		return e.store.ReplaceLabels(ctx, "", labels)
	})
}

// GetIndexLabels returns the index-scoped labels, sorted.
func (e *Engine) GetIndexLabels(ctx context.Context) ([]string, error) {
	release, err := e.guard("get_index_labels")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetLabels(ctx, "")
}

// UpdateIndexTags replaces the index-scoped tag set.
func (e *Engine) UpdateIndexTags(ctx context.Context, tags map[string]string) error {
	return e.mutate(ctx, "update_index_tags", func() error {
		return e.store.ReplaceTags(ctx, "", tags)
	})
}

// GetIndexTags returns the index-scoped tags.
func (e *Engine) GetIndexTags(ctx context.Context) (map[string]string, error) {
	release, err := e.guard("get_index_tags")
	if err != nil {
		return nil, err
	}
	defer release()
	return e.store.GetTags(ctx, "")
}
