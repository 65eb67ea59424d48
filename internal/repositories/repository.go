// Package repositories exposes each role's permitted operations as
// authenticated calls against the marketplace REST backend. Every fetch by ID
// reports absence as *apperr.NotFoundError; none returns a nil order with a
// nil error.
package repositories

import (
	"fmt"
	"net/url"

	"feira/internal/apperr"
)

func orderNotFound(err error, id string) error {
	if apperr.IsNotFound(err) {
		return &apperr.NotFoundError{Resource: "order", ID: id}
	}
	return err
}

func escape(id string) string {
	return url.PathEscape(id)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
