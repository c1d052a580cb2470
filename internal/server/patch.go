package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"

	jsonpatch "github.com/evanphx/json-patch"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
)

const jsonPatchMediaType = "application/json-patch+json"

// ignoredPatchKeys are server-owned and silently dropped from merge patches.
var ignoredPatchKeys = []string{"id", "createdAt", "updatedAt"}

// applyPatch applies body to the mutable fields of current. An RFC 6902
// operation list is used when contentType says so, otherwise body is an
// RFC 7386 merge patch object. A null optional field becomes "".
func applyPatch(current models.LogEntry, contentType string, body []byte) (models.LogInput, error) {
	doc, err := json.Marshal(current.Input())
	if err != nil {
		return models.LogInput{}, err
	}

	var merged []byte
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == jsonPatchMediaType {
		ops, err := jsonpatch.DecodePatch(body)
		if err != nil {
			return models.LogInput{}, apperrors.Validation(fmt.Sprintf("invalid JSON patch: %v", err))
		}
		if merged, err = ops.Apply(doc); err != nil {
			return models.LogInput{}, apperrors.Validation(fmt.Sprintf("JSON patch failed: %v", err))
		}
	} else {
		cleaned, err := cleanMergePatch(body)
		if err != nil {
			return models.LogInput{}, err
		}
		if merged, err = jsonpatch.MergePatch(doc, cleaned); err != nil {
			return models.LogInput{}, apperrors.Validation(fmt.Sprintf("invalid merge patch: %v", err))
		}
	}

	var in models.LogInput
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return models.LogInput{}, apperrors.Validation(fmt.Sprintf("invalid patched log: %v", err))
	}
	return in, nil
}

// cleanMergePatch requires a JSON object and strips server-owned keys.
func cleanMergePatch(body []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, apperrors.Validation("merge patch must be a JSON object")
	}
	for _, k := range ignoredPatchKeys {
		delete(fields, k)
	}
	return json.Marshal(fields)
}
