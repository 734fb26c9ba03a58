package wal

import (
	"bytes"
	"encoding/gob"

	"github.com/spf13/afero"
)

// compiledForm is the on-disk shape of a .wo file: the post-expansion,
// post-optimization, post-resolve expression list produced by
// [Evaluator.Compile]. Declared opaque by spec.md 6 ("only the core
// reader and writer need agree"), so the encoding is a private detail;
// encoding/gob replaces core.py's pickle, already wired for cache keying
// in cache.go.
type compiledForm struct {
	Exprs []Value
}

// encodeCompiled writes exprs to path on fsys as a .wo file.
func encodeCompiled(fsys afero.Fs, path string, exprs []Value) error {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(compiledForm{Exprs: exprs}); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// decodeCompiled reads a .wo file written by encodeCompiled, returning
// its expressions (core.py Wal.decode).
func decodeCompiled(fsys afero.Fs, path string) ([]Value, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	var form compiledForm

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&form); err != nil {
		return nil, ErrNoParseTree.Wrap(err)
	}

	return form.Exprs, nil
}
