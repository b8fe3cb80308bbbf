package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCorpusNotFound = errors.New("corpus not found")
	ErrPaperNotFound  = errors.New("paper not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")

	// ErrSemanticUnavailable and ErrGraphUnavailable tag a failed lookup on
	// one retrieval path; the retriever recovers from either alone.
	ErrSemanticUnavailable = errors.New("similarity index unavailable")
	ErrGraphUnavailable    = errors.New("relationship index unavailable")

	// ErrRetrievalUnavailable means both paths failed and no evidence can be
	// produced at all.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrSynthesisFailed means evidence exists but the completion backend
	// failed even after the truncated retry.
	ErrSynthesisFailed = errors.New("answer synthesis failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
